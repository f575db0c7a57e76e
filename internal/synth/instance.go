package synth

import (
	"strings"

	"github.com/reoring/aspskema/internal/ir"
	"github.com/reoring/aspskema/internal/script"
	"github.com/reoring/aspskema/term"
)

// Value is one field of an instance. Ref is set for reference fields.
type Value struct {
	Term term.Term
	Ref  *Instance
}

// Instance is a validated fact value.
type Instance struct {
	class  *Class
	raw    term.Term
	values []Value
}

// Class returns the class that constructed i.
func (i *Instance) Class() *Class { return i.class }

// Term returns the engine term the instance was built from.
func (i *Instance) Term() term.Term { return i.raw }

// Field returns the named field.
func (i *Instance) Field(name string) (Value, bool) {
	idx := i.class.fact.FieldIndex(name)
	if idx < 0 {
		return Value{}, false
	}
	return i.values[idx], true
}

// String renders the instance as Class(f1,f2,...).
func (i *Instance) String() string {
	b := &strings.Builder{}
	b.WriteString(string(i.class.fact.Class()))
	b.WriteByte('(')
	for k, v := range i.values {
		if k > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (v Value) String() string {
	if v.Ref != nil {
		return v.Ref.String()
	}
	if v.Term.Type() == term.TypeString {
		return v.Term.Str()
	}
	return v.Term.String()
}

// Map exposes the fields to hook code: integers as int, strings and
// constants as string, references as nested maps.
func (i *Instance) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(i.values))
	for k, f := range i.class.fact.Fields {
		v := i.values[k]
		switch {
		case v.Ref != nil:
			out[f.Name] = v.Ref.Map()
		case f.Kind == ir.KindString:
			out[f.Name] = v.Term.Str()
		case f.Kind == ir.KindAlpha:
			out[f.Name] = v.Term.Name()
		default:
			out[f.Name] = script.ToGo(v.Term)
		}
	}
	return out
}

// Compare orders instances of the same class by their fields in
// declaration order.
func (c *Class) Compare(a, b *Instance) int {
	for k := range a.values {
		if r := compareValues(a.values[k], b.values[k]); r != 0 {
			return r
		}
	}
	return 0
}

func compareValues(a, b Value) int {
	if a.Ref != nil && b.Ref != nil {
		return a.Ref.class.Compare(a.Ref, b.Ref)
	}
	return term.Compare(a.Term, b.Term)
}
