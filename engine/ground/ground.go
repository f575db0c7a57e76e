// Package ground is an in-memory engine for ground programs: facts,
// positive rules and integrity constraints with callable comparisons.
// Solving yields the least model, or nothing when a constraint is violated.
package ground

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/reoring/aspskema/engine"
)

// ErrNotGrounded is returned by Solve before a successful Ground.
var ErrNotGrounded = errors.New("program is not grounded")

// Engine implements engine.Engine.
type Engine struct {
	logger *zap.Logger
	parts  map[string][]engine.Clause
	store  *engine.Store
	sat    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for grounding events. nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine with no programs.
func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop(), parts: map[string][]engine.Clause{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddProgram parses text and appends its clauses to part.
func (e *Engine) AddProgram(part, text string) error {
	clauses, err := engine.ParseProgram(text)
	if err != nil {
		return fmt.Errorf("part %s: %w", part, err)
	}
	e.parts[part] = append(e.parts[part], clauses...)
	e.logger.Debug("program added", zap.String("part", part), zap.Int("clauses", len(clauses)))
	return nil
}

// Ground evaluates parts in order. Unknown parts are empty.
func (e *Engine) Ground(ctx context.Context, parts []string, calls engine.Callables) error {
	var clauses []engine.Clause
	for _, p := range parts {
		clauses = append(clauses, e.parts[p]...)
	}
	store := engine.NewStore()
	sat, err := engine.Evaluate(ctx, clauses, store, calls)
	if err != nil {
		e.store = nil
		return err
	}
	e.store, e.sat = store, sat
	e.logger.Debug("grounded", zap.Strings("parts", parts), zap.Int("atoms", store.Len()), zap.Bool("satisfiable", sat))
	return nil
}

func (e *Engine) Solve(ctx context.Context, onModel func(engine.Model) error) error {
	if e.store == nil {
		return ErrNotGrounded
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.sat {
		return nil
	}
	atoms := e.store.All()
	engine.SortAtoms(atoms)
	if onModel == nil {
		return nil
	}
	return onModel(engine.Model{Atoms: atoms})
}

var _ engine.Engine = (*Engine)(nil)
