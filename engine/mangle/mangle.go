// Package mangle runs fact programs written in Mangle and checks the
// validator part against the resulting store.
//
// Every part except engine.ValidatorPart is Mangle source. The validator
// part uses the constraint syntax of package engine and is evaluated over
// the facts Mangle derived, converted to terms: numbers stay numbers,
// strings stay strings and names such as /red become the constant red.
package mangle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"
	"go.uber.org/zap"

	"github.com/reoring/aspskema/domain"
	"github.com/reoring/aspskema/engine"
	"github.com/reoring/aspskema/term"
)

// ErrNotGrounded is returned by Solve before a successful Ground.
var ErrNotGrounded = errors.New("program is not grounded")

// Engine implements engine.Engine on top of Mangle.
type Engine struct {
	logger     *zap.Logger
	sources    map[string][]string
	validators []engine.Clause
	store      *engine.Store
	sat        bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for evaluation events. nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine with no programs.
func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop(), sources: map[string][]string{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddProgram appends text to part after checking its syntax.
func (e *Engine) AddProgram(part, text string) error {
	if part == engine.ValidatorPart {
		clauses, err := engine.ParseProgram(text)
		if err != nil {
			return fmt.Errorf("part %s: %w", part, err)
		}
		e.validators = append(e.validators, clauses...)
		return nil
	}
	if _, err := parse.Unit(strings.NewReader(text)); err != nil {
		return fmt.Errorf("part %s: parse error: %w", part, err)
	}
	e.sources[part] = append(e.sources[part], text)
	return nil
}

// Ground evaluates the Mangle parts to a fixpoint, then the validator part
// when requested.
func (e *Engine) Ground(ctx context.Context, parts []string, calls engine.Callables) error {
	e.store = nil
	var src []string
	withValidators := false
	for _, p := range parts {
		if p == engine.ValidatorPart {
			withValidators = true
			continue
		}
		src = append(src, e.sources[p]...)
	}
	unit, err := parse.Unit(strings.NewReader(strings.Join(src, "\n")))
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return fmt.Errorf("analysis error: %w", err)
	}
	facts := factstore.NewSimpleInMemoryStore()
	stats, err := mengine.EvalProgramWithStats(programInfo, facts)
	if err != nil {
		return fmt.Errorf("evaluation error: %w", err)
	}
	e.logger.Debug("mangle evaluation complete", zap.Int("strata", len(stats.Strata)))
	if err := ctx.Err(); err != nil {
		return err
	}

	var atoms []term.Term
	for _, sym := range facts.ListPredicates() {
		err := facts.GetFacts(ast.NewQuery(sym), func(a ast.Atom) error {
			t, err := fromAtom(a)
			if err != nil {
				return err
			}
			atoms = append(atoms, t)
			return nil
		})
		if err != nil {
			return err
		}
	}
	engine.SortAtoms(atoms)
	store := engine.NewStore()
	for _, a := range atoms {
		store.Add(a)
	}

	sat := true
	if withValidators {
		sat, err = engine.Evaluate(ctx, e.validators, store, calls)
		if err != nil {
			return err
		}
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
	if !e.sat || onModel == nil {
		return nil
	}
	atoms := e.store.All()
	engine.SortAtoms(atoms)
	return onModel(engine.Model{Atoms: atoms})
}

func fromAtom(a ast.Atom) (term.Term, error) {
	args := make([]term.Term, len(a.Args))
	for i, arg := range a.Args {
		t, err := fromBaseTerm(arg)
		if err != nil {
			return term.Term{}, fmt.Errorf("%s: argument %d: %w", a.Predicate.Symbol, i, err)
		}
		args[i] = t
	}
	return term.Function(a.Predicate.Symbol, args...), nil
}

func fromBaseTerm(bt ast.BaseTerm) (term.Term, error) {
	c, ok := bt.(ast.Constant)
	if !ok {
		return term.Term{}, fmt.Errorf("unsupported term %v", bt)
	}
	switch c.Type {
	case ast.NumberType:
		if !domain.InRange(c.NumValue) {
			return term.Term{}, fmt.Errorf("%d: %w", c.NumValue, domain.ErrOverflow)
		}
		return term.Number(c.NumValue), nil
	case ast.StringType:
		return term.String(c.Symbol), nil
	case ast.NameType:
		name := strings.TrimPrefix(c.Symbol, "/")
		if !domain.IsPredicateName(name) {
			return term.Term{}, fmt.Errorf("name %s cannot be used as a constant", c.Symbol)
		}
		return term.Function(name), nil
	}
	return term.Term{}, fmt.Errorf("unsupported constant %v", c)
}

var _ engine.Engine = (*Engine)(nil)
