package script

import (
	"fmt"

	"github.com/reoring/aspskema/domain"
	"github.com/reoring/aspskema/term"
)

// ToGo converts an engine term for interpreted code: numbers become int,
// strings and constants string, tuples []interface{}, other function terms
// map[string]interface{}{"name": ..., "args": []interface{}{...}}.
func ToGo(t term.Term) interface{} {
	switch t.Type() {
	case term.TypeNumber:
		return int(t.Number())
	case term.TypeString:
		return t.Str()
	case term.TypeFunction:
		if t.Arity() == 0 && !t.IsTuple() {
			return t.Name()
		}
		args := make([]interface{}, t.Arity())
		for i, a := range t.Args() {
			args[i] = ToGo(a)
		}
		if t.IsTuple() {
			return args
		}
		return map[string]interface{}{"name": t.Name(), "args": args}
	}
	return t.String()
}

// FromGo converts a value returned by interpreted code back to a term.
func FromGo(v interface{}) (term.Term, error) {
	switch x := v.(type) {
	case term.Term:
		return x, nil
	case int:
		return number(int64(x))
	case int32:
		return number(int64(x))
	case int64:
		return number(x)
	case bool:
		if x {
			return term.Number(1), nil
		}
		return term.Number(0), nil
	case string:
		return term.String(x), nil
	case []interface{}:
		args := make([]term.Term, len(x))
		for i := range x {
			a, err := FromGo(x[i])
			if err != nil {
				return term.Term{}, err
			}
			args[i] = a
		}
		return term.Tuple(args...), nil
	case map[string]interface{}:
		name, _ := x["name"].(string)
		if !domain.IsPredicateName(name) {
			return term.Term{}, fmt.Errorf("cannot convert %v: name must be a predicate name", x)
		}
		raw, _ := x["args"].([]interface{})
		tup, err := FromGo(raw)
		if err != nil {
			return term.Term{}, err
		}
		return term.Function(name, tup.Args()...), nil
	}
	return term.Term{}, fmt.Errorf("cannot convert %T to a term", v)
}

func number(n int64) (term.Term, error) {
	if !domain.InRange(n) {
		return term.Term{}, fmt.Errorf("%d: %w", n, domain.ErrOverflow)
	}
	return term.Number(n), nil
}
