// Package engine defines the contract between the validation runtime and a
// logic engine, plus a small evaluator for ground programs shared by the
// bundled backends.
//
// A program is added in named parts. Grounding evaluates the requested
// parts; callables referenced as @name(args) in constraint bodies are
// resolved through a Callables table and may abort grounding with an error,
// which is reported as a *GroundError.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/aspskema/term"
)

// Program part names used by the runtime.
const (
	BasePart      = "base"
	ValidatorPart = "valasp"
	AuxPart       = "aux_program"
)

// Callable is an external function invoked as @name(args).
type Callable func(args []term.Term) (term.Term, error)

// Callables resolves callable names.
type Callables interface {
	Lookup(name string) (Callable, bool)
}

// CallableMap is a Callables backed by a map.
type CallableMap map[string]Callable

func (m CallableMap) Lookup(name string) (Callable, bool) {
	c, ok := m[name]
	return c, ok
}

// Model is one answer of a solved program.
type Model struct {
	Atoms []term.Term
}

// Contains reports whether atom is true in the model.
func (m Model) Contains(atom term.Term) bool {
	for _, a := range m.Atoms {
		if term.Equal(a, atom) {
			return true
		}
	}
	return false
}

func (m Model) String() string {
	parts := make([]string, len(m.Atoms))
	for i, a := range m.Atoms {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

// Engine is a logic engine driven by the validation runtime.
type Engine interface {
	// AddProgram appends text to the named part.
	AddProgram(part, text string) error
	// Ground evaluates the given parts, calling back into calls.
	Ground(ctx context.Context, parts []string, calls Callables) error
	// Solve reports each model to onModel. An unsatisfiable program
	// produces no model and no error.
	Solve(ctx context.Context, onModel func(Model) error) error
}

// GroundError reports a callable failure during grounding.
type GroundError struct {
	Clause string
	Err    error
}

func (e *GroundError) Error() string {
	return fmt.Sprintf("grounding stopped because of errors in %s\n%v", e.Clause, e.Err)
}

func (e *GroundError) Unwrap() error { return e.Err }

// SortAtoms orders atoms by predicate signature, then by term order.
func SortAtoms(atoms []term.Term) {
	sort.SliceStable(atoms, func(i, j int) bool {
		si, sj := atoms[i].Signature(), atoms[j].Signature()
		if si != sj {
			return si < sj
		}
		return term.Compare(atoms[i], atoms[j]) < 0
	})
}
