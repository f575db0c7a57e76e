package engine

import (
	"context"
	"fmt"

	"github.com/reoring/aspskema/term"
)

// Store is a set of ground atoms indexed by predicate signature, keeping
// insertion order.
type Store struct {
	bySig map[string][]term.Term
	seen  map[string]struct{}
	order []term.Term
}

func NewStore() *Store {
	return &Store{bySig: map[string][]term.Term{}, seen: map[string]struct{}{}}
}

// Add inserts atom and reports whether it was new.
func (s *Store) Add(atom term.Term) bool {
	key := atom.String()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	sig := atom.Signature()
	s.bySig[sig] = append(s.bySig[sig], atom)
	s.order = append(s.order, atom)
	return true
}

func (s *Store) Has(atom term.Term) bool {
	_, ok := s.seen[atom.String()]
	return ok
}

// Atoms returns the atoms with the given signature in insertion order.
func (s *Store) Atoms(sig string) []term.Term { return s.bySig[sig] }

// All returns every atom in insertion order.
func (s *Store) All() []term.Term { return append([]term.Term(nil), s.order...) }

func (s *Store) Len() int { return len(s.order) }

// Evaluate adds the facts of clauses to store, applies the rules up to a
// fixpoint and then checks the constraints in clause order. Every match of
// every constraint is visited, so callables see each instance. sat is false
// when some constraint body holds.
func Evaluate(ctx context.Context, clauses []Clause, store *Store, calls Callables) (sat bool, err error) {
	for _, c := range clauses {
		if c.IsFact() {
			store.Add(*c.Head)
		}
	}
	for changed := true; changed; {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		changed = false
		for _, c := range clauses {
			if c.IsFact() || c.IsConstraint() {
				continue
			}
			var derived []term.Term
			err := match(c, c.Body, binding{}, store, calls, func(b binding) error {
				derived = append(derived, b.apply(*c.Head))
				return nil
			})
			if err != nil {
				return false, err
			}
			for _, a := range derived {
				if store.Add(a) {
					changed = true
				}
			}
		}
	}
	sat = true
	for _, c := range clauses {
		if !c.IsConstraint() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		err := match(c, c.Body, binding{}, store, calls, func(binding) error {
			sat = false
			return nil
		})
		if err != nil {
			return false, err
		}
	}
	return sat, nil
}

type binding map[string]term.Term

func (b binding) clone() binding {
	out := make(binding, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (b binding) apply(t term.Term) term.Term {
	switch t.Type() {
	case term.TypeVariable:
		if v, ok := b[t.Name()]; ok {
			return v
		}
		return t
	case term.TypeFunction:
		if t.Arity() == 0 {
			return t
		}
		args := make([]term.Term, t.Arity())
		for i, a := range t.Args() {
			args[i] = b.apply(a)
		}
		return term.Function(t.Name(), args...)
	}
	return t
}

// unify extends b so that pattern equals ground.
func (b binding) unify(pattern, ground term.Term) bool {
	switch pattern.Type() {
	case term.TypeVariable:
		if pattern.Name() == "_" {
			return true
		}
		if v, ok := b[pattern.Name()]; ok {
			return term.Equal(v, ground)
		}
		b[pattern.Name()] = ground
		return true
	case term.TypeFunction:
		if ground.Type() != term.TypeFunction || ground.Name() != pattern.Name() || ground.Arity() != pattern.Arity() {
			return false
		}
		for i := range pattern.Args() {
			if !b.unify(pattern.Args()[i], ground.Args()[i]) {
				return false
			}
		}
		return true
	}
	return term.Equal(pattern, ground)
}

func match(c Clause, body []Literal, b binding, store *Store, calls Callables, yield func(binding) error) error {
	if len(body) == 0 {
		return yield(b)
	}
	l := body[0]
	if l.Atom != nil {
		for _, cand := range store.Atoms(l.Atom.Signature()) {
			nb := b.clone()
			if !nb.unify(*l.Atom, cand) {
				continue
			}
			if err := match(c, body[1:], nb, store, calls, yield); err != nil {
				return err
			}
		}
		return nil
	}
	left, err := evalExpr(c, l.Left, b, calls)
	if err != nil {
		return err
	}
	right, err := evalExpr(c, l.Right, b, calls)
	if err != nil {
		return err
	}
	if !l.Op.Holds(term.Compare(left, right)) {
		return nil
	}
	return match(c, body[1:], b, store, calls, yield)
}

func evalExpr(c Clause, e Expr, b binding, calls Callables) (term.Term, error) {
	if e.Call == "" {
		return b.apply(e.Term), nil
	}
	var fn Callable
	ok := false
	if calls != nil {
		fn, ok = calls.Lookup(e.Call)
	}
	if !ok {
		return term.Term{}, &GroundError{Clause: c.String(), Err: fmt.Errorf("unknown callable @%s", e.Call)}
	}
	args := make([]term.Term, len(e.Args))
	for i, a := range e.Args {
		args[i] = b.apply(a)
	}
	out, err := fn(args)
	if err != nil {
		return term.Term{}, &GroundError{Clause: c.String(), Err: err}
	}
	return out, nil
}
