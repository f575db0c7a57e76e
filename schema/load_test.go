package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/schema"
)

func TestLoadYAML_PreservesOrder(t *testing.T) {
	doc, err := schema.LoadYAML(strings.NewReader(`
date:
  year: Integer
  month: Integer
  day: Integer
bday:
  name: Alpha
  date: Date
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "bday"}, doc.Root.Keys())
	v, _ := doc.Root.Get("date")
	assert.Equal(t, []string{"year", "month", "day"}, v.(*schema.Map).Keys())
	assert.Equal(t, schema.Position{Line: 2, Col: 1}, doc.Root.Pos("date"))
}

func TestLoadYAML_Scalars(t *testing.T) {
	doc, err := schema.LoadYAMLBytes([]byte("a: 1\nb: true\nc: 1.5\nd: ~\ne: [x, 2]\nf: 99999999999999999999\n"))
	require.NoError(t, err)
	get := func(k string) any { v, _ := doc.Root.Get(k); return v }
	assert.Equal(t, int64(1), get("a"))
	assert.Equal(t, true, get("b"))
	assert.Equal(t, 1.5, get("c"))
	assert.Nil(t, get("d"))
	assert.Equal(t, []any{"x", int64(2)}, get("e"))
	assert.Equal(t, 1e20, get("f"))
}

func TestLoadYAML_DuplicateKey(t *testing.T) {
	_, err := schema.LoadYAML(strings.NewReader("a:\n  x: Integer\n  x: String\n"))
	var dup *schema.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "x", dup.Key)
	assert.Equal(t, 2, dup.FirstLine)
	assert.Equal(t, 3, dup.Line)
}

func TestLoadYAML_EmptyAndInvalid(t *testing.T) {
	doc, err := schema.LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Root.Len())

	_, err = schema.LoadYAML(strings.NewReader("- a\n- b\n"))
	var se *aspskema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "expected structure", se.Error())

	_, err = schema.LoadYAML(strings.NewReader("a: [b\n"))
	require.ErrorAs(t, err, &se)
	assert.Equal(t, aspskema.CodeParseError, se.Code)
}

func TestLoadJSON(t *testing.T) {
	doc, err := schema.LoadJSON(strings.NewReader(`{"point": {"y": "Integer", "x": {"type": "Integer", "min": 0, "enum": [1, 2]}}}`))
	require.NoError(t, err)
	pv, _ := doc.Root.Get("point")
	p := pv.(*schema.Map)
	assert.Equal(t, []string{"y", "x"}, p.Keys())
	xv, _ := p.Get("x")
	x := xv.(*schema.Map)
	minv, _ := x.Get("min")
	assert.Equal(t, int64(0), minv)
	enum, _ := x.Get("enum")
	assert.Equal(t, []any{int64(1), int64(2)}, enum)
}

func TestLoadJSON_Duplicate(t *testing.T) {
	_, err := schema.LoadJSON(strings.NewReader(`{"a": {"x": "Integer"}, "a": {}}`))
	var dup *schema.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Key)
}

func TestFromMap(t *testing.T) {
	doc := schema.FromMap(map[string]any{"b": map[string]any{"x": "Integer"}, "a": map[string]any{"y": []string{"s"}, "n": 3}})
	assert.Equal(t, []string{"a", "b"}, doc.Root.Keys())
	av, _ := doc.Root.Get("a")
	n, _ := av.(*schema.Map).Get("n")
	assert.Equal(t, int64(3), n)
	y, _ := av.(*schema.Map).Get("y")
	assert.Equal(t, []any{"s"}, y)
}
