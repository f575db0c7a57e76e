// Package synth turns compiled facts into validator classes: values that
// construct instances from engine terms, order and display them, and keep
// the fact's aggregates up to date around grounding.
package synth

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/domain"
	"github.com/reoring/aspskema/internal/ir"
	"github.com/reoring/aspskema/internal/script"
	"github.com/reoring/aspskema/term"
)

// Resolver finds the class of a referenced fact.
type Resolver interface {
	Lookup(name domain.PredicateName) (*Class, bool)
}

// Hook is a named class-level hook.
type Hook struct {
	Name string
	Fn   script.ClassFunc
}

// Check is a named instance-level hook run after the field checks.
type Check struct {
	Name string
	Fn   script.InstanceFunc
}

// Class validates the instances of one fact.
type Class struct {
	fact    *ir.Fact
	acc     *Accumulators
	resolve Resolver
	logger  *zap.Logger

	checks          []Check
	afterInit       script.InstanceFunc
	beforeGrounding []Hook
	afterGrounding  []Hook
}

// Option configures a Class.
type Option func(*Class)

// WithLogger sets the logger for aggregate violations. nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Class) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCheck adds an instance check run in order after comparisons.
func WithCheck(name string, fn script.InstanceFunc) Option {
	return func(c *Class) { c.checks = append(c.checks, Check{Name: name, Fn: fn}) }
}

// WithAfterInit sets the hook run at the end of every construction.
func WithAfterInit(fn script.InstanceFunc) Option {
	return func(c *Class) { c.afterInit = fn }
}

// WithBeforeGrounding appends a hook run after the accumulators are reset.
func WithBeforeGrounding(name string, fn script.ClassFunc) Option {
	return func(c *Class) { c.beforeGrounding = append(c.beforeGrounding, Hook{Name: name, Fn: fn}) }
}

// WithAfterGrounding appends a hook run after the aggregate checks.
func WithAfterGrounding(name string, fn script.ClassFunc) Option {
	return func(c *Class) { c.afterGrounding = append(c.afterGrounding, Hook{Name: name, Fn: fn}) }
}

// New builds the class of fact. acc must be shared by every class of a run;
// resolve may be nil when the fact has no reference fields.
func New(fact *ir.Fact, acc *Accumulators, resolve Resolver, opts ...Option) *Class {
	c := &Class{fact: fact, acc: acc, resolve: resolve, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fact returns the compiled definition the class was built from.
func (c *Class) Fact() *ir.Fact { return c.fact }

// Name is the predicate the class validates.
func (c *Class) Name() domain.PredicateName { return c.fact.Name }

// Construct validates raw and builds an instance. Failures are
// *aspskema.ConstructionError values, possibly inside frames naming the
// constructor or hook that failed.
func (c *Class) Construct(raw term.Term) (*Instance, error) {
	inst, err := c.construct(raw)
	if err != nil {
		return nil, aspskema.WithFrame("constructor of "+string(c.fact.Name), err)
	}
	return inst, nil
}

func (c *Class) construct(raw term.Term) (*Instance, error) {
	args, err := c.unpack(raw)
	if err != nil {
		return nil, err
	}
	inst := &Instance{class: c, raw: raw, values: make([]Value, len(args))}
	for i := range c.fact.Fields {
		v, err := c.field(&c.fact.Fields[i], args[i])
		if err != nil {
			return nil, err
		}
		inst.values[i] = v
	}
	for _, cmp := range c.fact.Comparisons {
		l, r := inst.values[cmp.LIndex], inst.values[cmp.RIndex]
		if !cmp.Op.Holds(compareValues(l, r)) {
			return nil, c.violation(cmp.Left, aspskema.CodeComparison,
				fmt.Sprintf("Expected %s. Received: %s=%s, %s=%s", cmp, cmp.Left, l, cmp.Right, r),
				"comparison", cmp.String(), "left", l.String(), "right", r.String())
		}
	}
	for _, chk := range c.checks {
		if err := chk.Fn(inst.Map()); err != nil {
			return nil, aspskema.WithFrame(fmt.Sprintf("method %s of %s", chk.Name, c.fact.Name), c.hookError(err))
		}
	}
	if err := c.accumulate(inst); err != nil {
		return nil, err
	}
	if c.afterInit != nil {
		if err := c.afterInit(inst.Map()); err != nil {
			return nil, aspskema.WithFrame("method after_init of "+string(c.fact.Name), c.hookError(err))
		}
	}
	return inst, nil
}

func (c *Class) unpack(raw term.Term) ([]term.Term, error) {
	if c.fact.Mode == ir.ModeForward {
		return []term.Term{raw}, nil
	}
	want := string(c.fact.Name)
	label := want
	if c.fact.Mode == ir.ModeTuple {
		want, label = "", "TUPLE"
	}
	if raw.Type() != term.TypeFunction {
		return nil, c.mismatch("", aspskema.CodeInvalidType,
			fmt.Sprintf("expecting Function, but received %s; invalid term %s", raw.Type(), raw))
	}
	if raw.Name() != want {
		return nil, c.mismatch("", aspskema.CodeTag,
			fmt.Sprintf("expecting function %q, but found %q; invalid term %s", want, raw.Name(), raw))
	}
	if raw.Arity() != c.fact.Arity() {
		return nil, c.mismatch("", aspskema.CodeArity,
			fmt.Sprintf("expecting arity %d for %s, but found %d; invalid term %s", c.fact.Arity(), label, raw.Arity(), raw))
	}
	return raw.Args(), nil
}

func (c *Class) field(f *ir.Field, t term.Term) (Value, error) {
	switch f.Kind {
	case ir.KindInteger:
		if t.Type() != term.TypeNumber {
			return Value{}, c.mismatch(f.Name, aspskema.CodeInvalidType,
				fmt.Sprintf("expecting Number, but received %s", t))
		}
		return Value{Term: t}, c.integer(f, t.Number())
	case ir.KindString:
		if t.Type() != term.TypeString {
			return Value{}, c.mismatch(f.Name, aspskema.CodeInvalidType,
				fmt.Sprintf("expecting String, but received %s", t))
		}
		return Value{Term: t}, c.text(f, t.Str())
	case ir.KindAlpha:
		if t.Type() != term.TypeFunction || t.IsTuple() {
			return Value{}, c.mismatch(f.Name, aspskema.CodeInvalidType,
				fmt.Sprintf("expecting Function, but received %s", t))
		}
		if t.Arity() != 0 {
			return Value{}, c.mismatch(f.Name, aspskema.CodeArity,
				fmt.Sprintf("expecting function of arity 0, but it is %s", t))
		}
		return Value{Term: t}, c.text(f, t.Name())
	case ir.KindReference:
		ref, ok := c.lookup(f.Ref)
		if !ok {
			return Value{}, c.mismatch(f.Name, aspskema.CodeUndefinedType,
				fmt.Sprintf("undefined type %s", f.Ref))
		}
		inst, err := ref.Construct(t)
		if err != nil {
			return Value{}, err
		}
		return Value{Term: t, Ref: inst}, nil
	}
	return Value{Term: t}, nil
}

func (c *Class) lookup(name domain.PredicateName) (*Class, bool) {
	if name == c.fact.Name {
		return c, true
	}
	if c.resolve == nil {
		return nil, false
	}
	return c.resolve.Lookup(name)
}

func (c *Class) integer(f *ir.Field, v int64) error {
	if f.HasMin && v < f.Min {
		return c.violation(f.Name, aspskema.CodeTooSmall,
			fmt.Sprintf("Should be >= %d. Received: %d", f.Min, v), "bound", f.Min, "value", v)
	}
	if f.HasMax && v > f.Max {
		return c.violation(f.Name, aspskema.CodeTooBig,
			fmt.Sprintf("Should be <= %d. Received: %d", f.Max, v), "bound", f.Max, "value", v)
	}
	if len(f.IntEnum) > 0 {
		for _, e := range f.IntEnum {
			if e == v {
				return nil
			}
		}
		items := make([]string, len(f.IntEnum))
		for i, e := range f.IntEnum {
			items[i] = fmt.Sprint(e)
		}
		return c.violation(f.Name, aspskema.CodeInvalidEnum,
			fmt.Sprintf("Should be one of [%s]. Received: %d", strings.Join(items, ", "), v), "value", v)
	}
	return nil
}

func (c *Class) text(f *ir.Field, s string) error {
	n := int64(len([]rune(s)))
	if f.HasMin && n < f.Min {
		return c.violation(f.Name, aspskema.CodeTooShort,
			fmt.Sprintf("Len should be >= %d. Received: %s", f.Min, s), "bound", f.Min, "value", s)
	}
	if f.HasMax && n > f.Max {
		return c.violation(f.Name, aspskema.CodeTooLong,
			fmt.Sprintf("Len should be <= %d. Received: %s", f.Max, s), "bound", f.Max, "value", s)
	}
	if len(f.StrEnum) > 0 {
		found := false
		for _, e := range f.StrEnum {
			if e == s {
				found = true
				break
			}
		}
		if !found {
			return c.violation(f.Name, aspskema.CodeInvalidEnum,
				fmt.Sprintf("Should be one of [%s]. Received: %s", strings.Join(f.StrEnum, ", "), s), "value", s)
		}
	}
	if f.Pattern != nil {
		// anchored at the start only
		if loc := f.Pattern.FindStringIndex(s); loc == nil || loc[0] != 0 {
			return c.violation(f.Name, aspskema.CodePattern,
				fmt.Sprintf("Not match regex %s. Received: %s", f.Pattern, s), "pattern", f.Pattern.String(), "value", s)
		}
	}
	return nil
}

// accumulate applies the aggregate updates of inst, all or none.
func (c *Class) accumulate(inst *Instance) error {
	next := make([]int64, len(c.fact.Aggregates))
	for i, a := range c.fact.Aggregates {
		cur := c.acc.Value(c.fact.Name, a.ID)
		v := inst.values[a.Index].Term.Number()
		switch a.Kind {
		case ir.AggCount:
			cur++
		case ir.AggSumPos:
			if v > 0 {
				cur += v
			}
		case ir.AggSumNeg:
			if v < 0 {
				cur += v
			}
		}
		if !domain.InRange(cur) {
			return c.violation(a.Field, aspskema.CodeOverflow,
				fmt.Sprintf("%s of %s in predicate %s overflows with value %d", a.Kind, a.Field, c.fact.Name, v),
				"value", v)
		}
		next[i] = cur
	}
	for i, a := range c.fact.Aggregates {
		c.acc.set(c.fact.Name, a.ID, next[i])
	}
	return nil
}

// BeforeGrounding resets the aggregates, then runs the hooks in order.
func (c *Class) BeforeGrounding() error {
	for _, a := range c.fact.Aggregates {
		c.acc.Reset(c.fact.Name, a.ID)
	}
	return c.runHooks(c.beforeGrounding)
}

// AfterGrounding checks the aggregates in declaration order, then runs the
// hooks in order.
func (c *Class) AfterGrounding() error {
	for _, a := range c.fact.Aggregates {
		if err := c.checkAggregate(a); err != nil {
			return err
		}
	}
	return c.runHooks(c.afterGrounding)
}

func (c *Class) checkAggregate(a ir.Aggregate) error {
	v := c.acc.Value(c.fact.Name, a.ID)
	var exceeded, unreached bool
	if a.Kind == ir.AggSumNeg {
		exceeded = v < a.Exceed
		unreached = a.HasReach && v > a.Reach
	} else {
		exceeded = v > a.Exceed
		unreached = a.HasReach && v < a.Reach
	}
	switch {
	case exceeded:
		return c.aggregateError(a, v, a.Exceed, "may exceed")
	case unreached:
		return c.aggregateError(a, v, a.Reach, "cannot reach")
	}
	return nil
}

func (c *Class) aggregateError(a ir.Aggregate, value, bound int64, what string) error {
	msg := fmt.Sprintf("%s of %s in predicate %s %s %d", a.Kind, a.Field, c.fact.Name, what, bound)
	c.logger.Debug("aggregate violated",
		zap.String("fact", string(c.fact.Name)),
		zap.String("aggregate", a.ID),
		zap.Int64("value", value),
		zap.Int64("bound", bound))
	return &aspskema.AggregateError{
		Fact:  string(c.fact.Name),
		Field: a.Field,
		Value: value,
		Bound: bound,
		Issue: c.path(a.Field).Issue(aspskema.CodeAggregateViolation, msg, "aggregate", a.ID, "value", value, "bound", bound),
	}
}

func (c *Class) runHooks(hooks []Hook) error {
	for _, h := range hooks {
		if err := h.Fn(); err != nil {
			return aspskema.WithFrame(fmt.Sprintf("method %s of %s", h.Name, c.fact.Name), err)
		}
	}
	return nil
}

func (c *Class) path(field string) aspskema.PathRef {
	return aspskema.Root().Field(string(c.fact.Name)).Field(field)
}

func (c *Class) mismatch(field, code, msg string) error {
	return &aspskema.ConstructionError{
		Kind:  aspskema.TypeMismatch,
		Fact:  string(c.fact.Name),
		Field: field,
		Issue: c.path(field).Issue(code, msg, "fact", string(c.fact.Name), "field", field),
	}
}

func (c *Class) violation(field, code, msg string, kv ...any) error {
	kv = append([]any{"fact", string(c.fact.Name), "field", field}, kv...)
	return &aspskema.ConstructionError{
		Kind:  aspskema.ConstraintViolation,
		Fact:  string(c.fact.Name),
		Field: field,
		Issue: c.path(field).Issue(code, msg, kv...),
	}
}

func (c *Class) hookError(err error) error {
	return &aspskema.ConstructionError{
		Kind:  aspskema.ConstraintViolation,
		Fact:  string(c.fact.Name),
		Issue: aspskema.Issue{Path: c.path("").Pointer(), Code: aspskema.CodeHook, Message: err.Error(), Cause: err},
	}
}
