package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	assert.Equal(t, "invalid type", T("invalid_type", nil))

	SetLanguage("ja")
	defer SetLanguage("en")
	assert.Equal(t, "型が不正です", T("invalid_type", nil))
}

func TestTranslator_Placeholders(t *testing.T) {
	got := T("unknown_key", map[string]string{"key": "foo", "context": "valasp"})
	assert.Equal(t, "unexpected foo in valasp", got)
}

func TestTranslator_UnknownCode(t *testing.T) {
	assert.Equal(t, "no_such_code", T("no_such_code", nil))
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X-" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	assert.Equal(t, "X-pattern", T("pattern", nil))
}
