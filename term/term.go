// Package term models the values exchanged with a logic engine: integers,
// strings, and function terms (constants, tagged tuples and anonymous
// tuples). Variables only appear in rule and constraint patterns.
package term

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the kind of a Term.
type Type uint8

const (
	TypeNumber Type = iota
	TypeString
	TypeFunction
	TypeVariable
)

func (t Type) String() string {
	switch t {
	case TypeNumber:
		return "Number"
	case TypeString:
		return "String"
	case TypeFunction:
		return "Function"
	case TypeVariable:
		return "Variable"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Term is an immutable engine value.
type Term struct {
	typ  Type
	num  int64
	str  string // string value, function name or variable name
	args []Term
}

// Number builds an integer term.
func Number(n int64) Term { return Term{typ: TypeNumber, num: n} }

// String builds a string term.
func String(s string) Term { return Term{typ: TypeString, str: s} }

// Function builds a function term; with no args it is a constant.
func Function(name string, args ...Term) Term {
	return Term{typ: TypeFunction, str: name, args: append([]Term(nil), args...)}
}

// Tuple builds an anonymous function term.
func Tuple(args ...Term) Term { return Function("", args...) }

// Variable builds a pattern variable.
func Variable(name string) Term { return Term{typ: TypeVariable, str: name} }

func (t Term) Type() Type { return t.typ }

// Number returns the integer value of a TypeNumber term.
func (t Term) Number() int64 { return t.num }

// Str returns the value of a TypeString term.
func (t Term) Str() string { return t.str }

// Name returns the function or variable name.
func (t Term) Name() string { return t.str }

// Args returns the arguments of a function term.
func (t Term) Args() []Term { return t.args }

func (t Term) Arity() int { return len(t.args) }

// IsTuple reports whether t is an anonymous function term.
func (t Term) IsTuple() bool { return t.typ == TypeFunction && t.str == "" }

// IsGround reports whether t contains no variables.
func (t Term) IsGround() bool {
	if t.typ == TypeVariable {
		return false
	}
	for _, a := range t.args {
		if !a.IsGround() {
			return false
		}
	}
	return true
}

// Signature returns "name/arity" of a function term.
func (t Term) Signature() string { return t.str + "/" + strconv.Itoa(len(t.args)) }

func (t Term) String() string {
	b := &strings.Builder{}
	t.write(b)
	return b.String()
}

func (t Term) write(b *strings.Builder) {
	switch t.typ {
	case TypeNumber:
		b.WriteString(strconv.FormatInt(t.num, 10))
	case TypeString:
		b.WriteString(Quote(t.str))
	case TypeVariable:
		b.WriteString(t.str)
	case TypeFunction:
		b.WriteString(t.str)
		if len(t.args) == 0 && t.str != "" {
			return
		}
		b.WriteByte('(')
		for i, a := range t.args {
			if i > 0 {
				b.WriteByte(',')
			}
			a.write(b)
		}
		if t.str == "" && len(t.args) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	}
}

// Quote renders s as an engine string literal.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// rank orders types: numbers, constants, strings, compound functions.
func rank(t Term) int {
	switch t.typ {
	case TypeNumber:
		return 1
	case TypeFunction:
		if len(t.args) == 0 && t.str != "" {
			return 2
		}
		return 4
	case TypeString:
		return 3
	}
	return 5
}

// Compare is a total order over terms.
func Compare(a, b Term) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(int64(ra), int64(rb))
	}
	switch a.typ {
	case TypeNumber:
		return cmpInt(a.num, b.num)
	case TypeFunction:
		if c := cmpInt(int64(len(a.args)), int64(len(b.args))); c != 0 {
			return c
		}
		if c := strings.Compare(a.str, b.str); c != 0 {
			return c
		}
		for i := range a.args {
			if c := Compare(a.args[i], b.args[i]); c != 0 {
				return c
			}
		}
		return 0
	}
	return strings.Compare(a.str, b.str)
}

// Equal reports structural equality.
func Equal(a, b Term) bool { return Compare(a, b) == 0 && a.typ == b.typ }

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
