package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MaxNameLength is the longest accepted symbol name.
const MaxNameLength = 256

var (
	predicateRe = regexp.MustCompile(`^_*[a-z][A-Za-z0-9_]*$`)
	classRe     = regexp.MustCompile(`^_*[A-Z][A-Za-z0-9_]*$`)
	symbolRe    = regexp.MustCompile(`^_*[A-Za-z][A-Za-z0-9_]*$`)
)

// NameError reports a string that is not a valid symbol name.
type NameError struct {
	Value  string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Value, e.Reason)
}

// SymbolName is a name in either predicate form or class form.
type SymbolName string

// PredicateName is a symbol name starting (after underscores) with a lower-case letter.
type PredicateName string

// ClassName is a symbol name starting (after underscores) with an upper-case letter.
type ClassName string

func checkName(value string, re *regexp.Regexp, form string) error {
	if len(value) == 0 || len(value) > MaxNameLength {
		return &NameError{Value: value, Reason: fmt.Sprintf("length must be in 1..%d", MaxNameLength)}
	}
	if strings.ContainsAny(value, `"'`) {
		return &NameError{Value: value, Reason: "contains a quote"}
	}
	if !re.MatchString(value) {
		return &NameError{Value: value, Reason: "not in " + form + " form"}
	}
	return nil
}

// NewSymbolName accepts names in predicate or class form.
func NewSymbolName(value string) (SymbolName, error) {
	if err := checkName(value, symbolRe, "predicate or class"); err != nil {
		return "", err
	}
	return SymbolName(value), nil
}

// IsPredicate reports whether the name is in predicate form.
func (s SymbolName) IsPredicate() bool { return predicateRe.MatchString(string(s)) }

// NewPredicateName validates a predicate-form name.
func NewPredicateName(value string) (PredicateName, error) {
	if err := checkName(value, predicateRe, "predicate"); err != nil {
		return "", err
	}
	return PredicateName(value), nil
}

// NewClassName validates a class-form name.
func NewClassName(value string) (ClassName, error) {
	if err := checkName(value, classRe, "class"); err != nil {
		return "", err
	}
	return ClassName(value), nil
}

// IsPredicateName reports whether value is a valid predicate name.
func IsPredicateName(value string) bool {
	_, err := NewPredicateName(value)
	return err == nil
}

// IsClassName reports whether value is a valid class name.
func IsClassName(value string) bool {
	_, err := NewClassName(value)
	return err == nil
}

func (p PredicateName) String() string { return string(p) }

func (c ClassName) String() string { return string(c) }

// ToClass flips the first letter to upper case.
func (p PredicateName) ToClass() ClassName { return ClassName(flipFirst(string(p), unicode.ToUpper)) }

// ToPredicate flips the first letter to lower case.
func (c ClassName) ToPredicate() PredicateName {
	return PredicateName(flipFirst(string(c), unicode.ToLower))
}

func flipFirst(s string, to func(rune) rune) string {
	i := strings.IndexFunc(s, func(r rune) bool { return r != '_' })
	if i < 0 {
		return s
	}
	return s[:i] + string(to(rune(s[i]))) + s[i+1:]
}
