package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/rules"
	"github.com/reoring/aspskema/schema"
)

func validate(t *testing.T, src string) error {
	t.Helper()
	doc, err := schema.LoadYAML(strings.NewReader(src))
	require.NoError(t, err)
	return schema.Validate(doc)
}

func requireSchemaError(t *testing.T, err error, code, text string) {
	t.Helper()
	var se *aspskema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, code, se.Code)
	assert.Equal(t, text, se.Error())
}

func TestValidate_OK(t *testing.T) {
	err := validate(t, `
valasp:
  asp: "a(1)."
  go: "func f(args []interface{}) (interface{}, error) { return 1, nil }"
  wrap: [f]
  max_arity: 4
bday:
  name: Alpha
  date: Date
  valasp:
    after_init: "return nil"
date:
  year:
    type: Integer
    min: 1900
    max: 2100
    sum+:
      max: 100000
    count:
      min: 1
  month:
    type: Integer
    enum: [1, 2, 3]
  day: Integer
  valasp:
    is_predicate: true
    with_fun: IMPLICIT
    auto_blacklist: true
    having:
      - month < day
      - "year>=month"
name:
  value:
    type: String
    min_len: 1
    max_len: 10
    pattern: "^[A-Z]"
    enum: ["Alice", "Bob"]
    count:
      max: 5
edge:
  source: point
  dest: Point
  valasp:
    having:
      lt: [[source, dest]]
point:
  x:
    type: Integer
    sum_neg:
      min: -10
      max: -1
`)
	require.NoError(t, err)
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code string
		text string
	}{
		{"unknown global key", "valasp:\n  foo: 1\n", aspskema.CodeUnknownKey, "valasp: unexpected foo in valasp"},
		{"unknown fact config key", "p:\n  x: Integer\n  valasp:\n    foo: 1\n", aspskema.CodeUnknownKey, "p: valasp: unexpected foo in valasp of symbol"},
		{"unknown integer key", "p:\n  x:\n    type: Integer\n    pattern: a\n", aspskema.CodeUnknownKey, "p: x: unexpected pattern in Integer type"},
		{"unknown any key", "p:\n  x:\n    type: Any\n    min: 1\n", aspskema.CodeUnknownKey, "p: x: unexpected min in Any type"},
		{"unknown reference key", "p:\n  x:\n    type: Q\nq:\n  y:\n    type: P\n    enum: [1]\n", aspskema.CodeUnknownKey, "q: y: unexpected enum in user defined symbol"},
		{"unknown aggregate key", "p:\n  x:\n    type: Integer\n    count:\n      avg: 1\n", aspskema.CodeUnknownKey, "p: x: count: unexpected avg in count"},
		{"min not less than max", "p:\n  x:\n    type: Integer\n    min: 10\n    max: 10\n", aspskema.CodeMinNotLessMax, "p: x: min (10) is expected to be less than max (10)"},
		{"len min not less than max", "p:\n  x:\n    type: String\n    min_len: 5\n    max_len: 2\n", aspskema.CodeMinNotLessMax, "p: x: min_len (5) is expected to be less than max_len (2)"},
		{"aggregate min not less than max", "p:\n  x:\n    type: Integer\n    sum+:\n      min: 5\n      max: 1\n", aspskema.CodeMinNotLessMax, "p: x: sum+: min (5) is expected to be less than max (1)"},
		{"negative length", "p:\n  x:\n    type: Alpha\n    min: -1\n", aspskema.CodeTooSmall, "p: x: min: expected 0 or a positive integer"},
		{"positive sum_neg", "p:\n  x:\n    type: Integer\n    sum-:\n      max: 3\n", aspskema.CodeTooBig, "p: x: sum-: max: expected 0 or a negative integer"},
		{"bare aggregate keyword", "p:\n  x:\n    type: Integer\n    sum_pos: String\n", aspskema.CodeInvalidType, "p: x: sum_pos: expected keyword Integer"},
		{"overflow", "p:\n  x:\n    type: Integer\n    max: 2147483648\n", aspskema.CodeOverflow, "p: x: max: 2147483648 is out of range"},
		{"huge", "p:\n  x:\n    type: Integer\n    min: 99999999999999999999\n", aspskema.CodeOverflow, "p: x: min: 100000000000000000000 is out of range"},
		{"not an int", "p:\n  x:\n    type: Integer\n    max: ten\n", aspskema.CodeInvalidType, "p: x: max: expected int, but found string"},
		{"quoted int", "p:\n  x:\n    type: Integer\n    max: \"5\"\n", aspskema.CodeInvalidType, "p: x: max: expected int, but found string"},
		{"bad enum", "p:\n  x:\n    type: Integer\n    enum: [1, a]\n", aspskema.CodeInvalidEnum, "p: x: enum: 1: invalid value in enum: expected int, but found string"},
		{"bad alpha enum", "p:\n  x:\n    type: Alpha\n    enum: [Abc]\n", aspskema.CodeInvalidEnum, `p: x: enum: 0: invalid value in enum: invalid name "Abc": not in predicate form`},
		{"bad pattern", "p:\n  x:\n    type: String\n    pattern: \"(\"\n", aspskema.CodePattern, "p: x: pattern: expected regular expression: error parsing regexp: missing closing ): `(`"},
		{"missing type", "p:\n  x:\n    min: 1\n", aspskema.CodeRequired, "p: x: expected keyword type"},
		{"undefined type", "p:\n  x: Date\n", aspskema.CodeUndefinedType, "p: x: undefined type Date"},
		{"undefined type in mapping", "p:\n  x:\n    type: Date\n", aspskema.CodeUndefinedType, "p: x: type: undefined type Date"},
		{"bad type name", "p:\n  x: 1abc\n", aspskema.CodeInvalidName, `p: x: expected one of [Alpha Any Integer String] or user defined symbol: invalid name "1abc": not in predicate or class form`},
		{"bad fact name", "Point:\n  x: Integer\n", aspskema.CodeInvalidName, `Point: invalid name "Point": not in predicate form`},
		{"reserved fact name", "valasp_x:\n  x: Integer\n", aspskema.CodeReserved, "valasp_x: valasp_x is reserved"},
		{"keyword fact name", "integer:\n  x: Integer\n", aspskema.CodeReserved, "integer: integer is reserved"},
		{"bad field name", "p:\n  X: Integer\n", aspskema.CodeInvalidName, `p: X: invalid name "X": not in predicate form`},
		{"no fields", "p:\n  valasp:\n    is_predicate: false\n", aspskema.CodeRequired, "p: expected at least one field"},
		{"not a structure", "p: Integer\n", aspskema.CodeInvalidType, "p: expected structure for symbol definition"},
		{"bad bool", "p:\n  x: Integer\n  valasp:\n    auto_blacklist: maybe\n", aspskema.CodeInvalidType, "p: valasp: auto_blacklist: unexpected maybe. Expected true or false"},
		{"bad mode", "p:\n  x: Integer\n  valasp:\n    with_fun: BACKWARD\n", aspskema.CodeInvalidEnum, "p: valasp: with_fun: unexpected value BACKWARD"},
		{"forward with two fields", "p:\n  x: Integer\n  y: Integer\n  valasp:\n    with_fun: FORWARD\n", aspskema.CodeArity, "p: valasp: with_fun: FORWARD requires exactly one field, found 2"},
		{"having unresolved", "p:\n  x: Integer\n  valasp:\n    having: [x < z]\n", aspskema.CodeUnresolvedField, "p: valasp: having: 0: z is not a field of p"},
		{"having unparsable", "p:\n  x: Integer\n  valasp:\n    having: [x]\n", aspskema.CodeParseError, `p: valasp: having: 0: cannot parse comparison "x"`},
		{"having mapping op", "p:\n  x: Integer\n  valasp:\n    having:\n      around: [[x, x]]\n", aspskema.CodeUnknownKey, "p: valasp: having: unexpected around in having"},
		{"having pair", "p:\n  x: Integer\n  valasp:\n    having:\n      lt: [[x]]\n", aspskema.CodeArity, "p: valasp: having: lt: 0: expected exactly two arguments of the list. Obtained 1"},
		{"max arity range", "valasp:\n  max_arity: 100\n", aspskema.CodeTooBig, "valasp: max_arity: max_arity must be in 1..99, but received 100"},
		{"arity exceeds max arity", "valasp:\n  max_arity: 1\np:\n  x: Integer\n  y: Integer\n  valasp:\n    auto_blacklist: true\n", aspskema.CodeArity, "p: arity 2 exceeds max_arity 1"},
		{"arity exceeds max arity by default", "valasp:\n  max_arity: 1\np:\n  x: Integer\n  y: Integer\n", aspskema.CodeArity, "p: arity 2 exceeds max_arity 1"},
		{"wrap reserved", "valasp:\n  wrap: [valasp_x]\n", aspskema.CodeReserved, "valasp: wrap: 0: valasp_x is reserved"},
		{"aliases together", "p:\n  x: Integer\n  valasp:\n    is_predicate: true\n    validate_predicate: true\n", aspskema.CodeDuplicateKey, "p: valasp: validate_predicate: is_predicate and validate_predicate cannot be given together"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requireSchemaError(t, validate(t, tc.src), tc.code, tc.text)
		})
	}
}

func TestValidate_NilDocument(t *testing.T) {
	requireSchemaError(t, schema.Validate(nil), aspskema.CodeInvalidType, "expected structure")
}

func TestValidate_FirstErrorInDocumentOrder(t *testing.T) {
	err := validate(t, "a:\n  x: Nope\nb:\n  y:\n    type: Integer\n    foo: 1\n")
	requireSchemaError(t, err, aspskema.CodeUndefinedType, "a: x: undefined type Nope")
}

func TestParseHaving(t *testing.T) {
	doc, err := schema.LoadYAML(strings.NewReader("h:\n  equals: [[a, b]]\n  ge: [[c, d]]\n"))
	require.NoError(t, err)
	v, _ := doc.Root.Get("h")
	got, err := schema.ParseHaving(v)
	require.NoError(t, err)
	assert.Equal(t, []rules.Comparison{{Left: "a", Op: rules.Eq, Right: "b"}, {Left: "c", Op: rules.Ge, Right: "d"}}, got)

	got, err = schema.ParseHaving([]any{"a != b"})
	require.NoError(t, err)
	assert.Equal(t, []rules.Comparison{{Left: "a", Op: rules.Ne, Right: "b"}}, got)
}
