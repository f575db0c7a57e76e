package aspskema

import (
	"strings"

	"github.com/reoring/aspskema/i18n"
)

// SchemaErrorAt builds a SchemaError at p.
// An empty msg falls back to the translated message for code.
func SchemaErrorAt(p PathRef, code, msg string, kv ...any) *SchemaError {
	if msg == "" {
		msg = i18n.T(code, nil)
	}
	return &SchemaError{Issue: p.Issue(code, msg, kv...)}
}

// Breadcrumb turns a JSON Pointer into "a: b: c".
func Breadcrumb(pointer string) string {
	parts := []string{}
	for _, p := range strings.Split(pointer, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~"))
	}
	return strings.Join(parts, ": ")
}
