package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "key" or "context").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":          "invalid type",
		"unknown_key":           "unexpected {key} in {context}",
		"duplicate_key":         "duplicate key",
		"required":              "required key missing",
		"too_small":             "too small",
		"too_big":               "too big",
		"too_short":             "too short",
		"too_long":              "too long",
		"pattern":               "does not match the pattern",
		"invalid_enum":          "not one of the allowed values",
		"invalid_name":          "invalid name",
		"parse_error":           "parse error",
		"overflow":              "integer overflow",
		"undefined_type":        "undefined type",
		"unresolved_field":      "unknown field",
		"min_not_less_than_max": "min must be less than max",
		"reserved":              "reserved name",
		"arity":                 "unexpected arity",
		"tag":                   "unexpected function name",
		"comparison":            "comparison failed",
		"hook":                  "hook failed",
		"aggregate_violation":   "aggregate out of bounds",
		"blacklisted":           "blacklisted",
	},
	"ja": {
		"invalid_type":          "型が不正です",
		"unknown_key":           "{context} に未知のキー {key} があります",
		"duplicate_key":         "キーが重複しています",
		"required":              "必須キーが不足しています",
		"too_small":             "小さすぎます",
		"too_big":               "大きすぎます",
		"too_short":             "短すぎます",
		"too_long":              "長すぎます",
		"pattern":               "パターンに一致しません",
		"invalid_enum":          "許可された値ではありません",
		"invalid_name":          "名前が不正です",
		"parse_error":           "解析エラー",
		"overflow":              "整数がオーバーフローしました",
		"undefined_type":        "未定義の型です",
		"unresolved_field":      "未知のフィールドです",
		"min_not_less_than_max": "min は max より小さくなければなりません",
		"reserved":              "予約済みの名前です",
		"arity":                 "アリティが不正です",
		"tag":                   "関数名が不正です",
		"comparison":            "比較に失敗しました",
		"hook":                  "フックが失敗しました",
		"aggregate_violation":   "集約値が範囲外です",
		"blacklisted":           "ブラックリストに含まれています",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
