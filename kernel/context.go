// Package kernel is the validation runtime. A Context owns the registered
// validator classes, the constraint text that routes every fact instance
// through them, and the callables the engine invokes while grounding.
package kernel

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/domain"
	"github.com/reoring/aspskema/engine"
	"github.com/reoring/aspskema/internal/ir"
	"github.com/reoring/aspskema/internal/synth"
	"github.com/reoring/aspskema/schema"
	"github.com/reoring/aspskema/term"
)

// ReservedPrefix starts the names of the runtime's own callables.
const ReservedPrefix = "valasp"

const errorCallable = ReservedPrefix + "_error"

// Context is the runtime state of one validation run.
type Context struct {
	maxArity   int
	logger     *zap.Logger
	diag       *aspskema.Warnings
	auxProgram string

	acc        *synth.Accumulators
	classes    []*synth.Class
	byName     map[domain.PredicateName]*synth.Class
	reserved   map[string]bool
	validators []string
	calls      engine.CallableMap // user callables
	internal   engine.CallableMap // validators and valasp_error
}

// Option configures a Context.
type Option func(*Context) error

// WithMaxArity sets the largest arity covered by blacklists (1..99).
func WithMaxArity(n int) Option {
	return func(c *Context) error {
		if n < 1 || n > 99 {
			return fmt.Errorf("max_arity must be in 1..99, but received %d", n)
		}
		c.maxArity = n
		return nil
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Context) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

// WithDiag collects warnings, such as ignored hooks, into d.
func WithDiag(d *aspskema.Warnings) Option {
	return func(c *Context) error {
		if d != nil {
			c.diag = d
		}
		return nil
	}
}

// WithCallables exposes user functions to the engine as @name(args).
func WithCallables(calls map[string]engine.Callable) Option {
	return func(c *Context) error {
		for name, fn := range calls {
			if c.isReserved(name) {
				return &RegistrationError{Name: name}
			}
			c.calls[name] = fn
		}
		return nil
	}
}

// WithAuxProgram adds engine source grounded with the facts.
func WithAuxProgram(text string) Option {
	return func(c *Context) error {
		c.auxProgram = text
		return nil
	}
}

// New creates an empty Context.
func New(opts ...Option) (*Context, error) {
	c := &Context{
		maxArity: schema.DefaultMaxArity,
		logger:   zap.NewNop(),
		diag:     &aspskema.Warnings{},
		acc:      synth.NewAccumulators(),
		byName:   map[domain.PredicateName]*synth.Class{},
		reserved: map[string]bool{},
		calls:    engine.CallableMap{},
		internal: engine.CallableMap{},
	}
	c.internal[errorCallable] = c.valaspError
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RegistrationError reports a name that cannot be registered.
type RegistrationError struct {
	Name string
}

func (e *RegistrationError) Error() string { return e.Name + " is reserved" }

func (c *Context) isReserved(name string) bool {
	return c.reserved[name] || strings.HasPrefix(strings.ToLower(name), ReservedPrefix)
}

// Accumulators returns the aggregate state shared by the classes of c.
func (c *Context) Accumulators() *synth.Accumulators { return c.acc }

// Warnings returns the warnings collected so far.
func (c *Context) Warnings() []string { return c.diag.Warnings() }

// Resolver returns the lookup used by reference fields.
func (c *Context) Resolver() synth.Resolver { return classResolver{c} }

type classResolver struct{ c *Context }

func (r classResolver) Lookup(name domain.PredicateName) (*synth.Class, bool) { return r.c.Class(name) }

// Class returns the registered class of a fact.
func (c *Context) Class(name domain.PredicateName) (*synth.Class, bool) {
	cls, ok := c.byName[name]
	return cls, ok
}

// Classes returns the registered classes in registration order.
func (c *Context) Classes() []*synth.Class { return append([]*synth.Class(nil), c.classes...) }

// Register adds cls, its validator constraint when the fact is constrained,
// and its blacklist when enabled.
func (c *Context) Register(cls *synth.Class) error {
	f := cls.Fact()
	key := string(f.Class())
	if c.isReserved(key) || c.isReserved(string(f.Name)) {
		return &RegistrationError{Name: key}
	}
	c.reserved[key] = true
	c.reserved[string(f.Name)] = true
	c.classes = append(c.classes, cls)
	c.byName[f.Name] = cls
	if f.IsConstrained {
		c.addValidator(cls)
	}
	if f.AutoBlacklist {
		if err := c.Blacklist(f.Name, c.allAritiesBut(f.Arity())...); err != nil {
			return err
		}
	}
	c.logger.Debug("class registered",
		zap.String("class", key),
		zap.Int("arity", f.Arity()),
		zap.Bool("constrained", f.IsConstrained),
		zap.Bool("blacklist", f.AutoBlacklist))
	return nil
}

func vars(arity int) string {
	out := make([]string, arity)
	for i := range out {
		out[i] = "X" + strconv.Itoa(i)
	}
	return strings.Join(out, ",")
}

func (c *Context) addValidator(cls *synth.Class) {
	f := cls.Fact()
	args := vars(f.Arity())
	callable := ReservedPrefix + "_validate_" + string(f.Name)
	var arg string
	switch f.Mode {
	case ir.ModeForward:
		arg = args
	case ir.ModeTuple:
		arg = "(" + args + ",)"
	default:
		arg = string(f.Name) + "(" + args + ")"
	}
	c.validators = append(c.validators,
		fmt.Sprintf(":- %s(%s); @%s(%s) != 1.", f.Name, args, callable, arg))

	frame := fmt.Sprintf("Invalid instance of %s:", f.Name)
	c.internal[callable] = func(in []term.Term) (term.Term, error) {
		if len(in) != 1 {
			return term.Term{}, aspskema.WithFrame(frame, fmt.Errorf("expecting 1 argument, but received %d", len(in)))
		}
		if _, err := cls.Construct(in[0]); err != nil {
			frames, inner := aspskema.Frames(err)
			return term.Term{}, aspskema.WithFrames(append([]string{frame}, frames...), &atomError{err: inner, atom: in[0]})
		}
		return term.Number(1), nil
	}
}

// atomError names the atom whose construction failed.
type atomError struct {
	err  error
	atom term.Term
}

func (e *atomError) Error() string { return fmt.Sprintf("%v in atom %s", e.err, e.atom) }

func (e *atomError) Unwrap() error { return e.err }

func (c *Context) allAritiesBut(excluded int) []int {
	var out []int
	for a := 1; a <= c.maxArity; a++ {
		if a != excluded {
			out = append(out, a)
		}
	}
	return out
}

// Blacklist rejects every instance of name with the given arities, or with
// any arity in 1..max_arity when none is given.
func (c *Context) Blacklist(name domain.PredicateName, arities ...int) error {
	if len(arities) == 0 {
		arities = c.allAritiesBut(0)
	}
	for _, a := range arities {
		if a < 1 || a > c.maxArity {
			return fmt.Errorf("arities must be in 1..%d", c.maxArity)
		}
	}
	for _, a := range arities {
		args := vars(a)
		c.validators = append(c.validators, fmt.Sprintf(
			":- %s(%s); @%s(\"%s/%d is blacklisted\", (%s,)) == 1.\n%s(%s) :- %s(%s).",
			name, args, errorCallable, name, a, args, name, args, name, args))
	}
	c.logger.Debug("blacklist added", zap.String("predicate", string(name)), zap.Ints("arities", arities))
	return nil
}

func (c *Context) valaspError(in []term.Term) (term.Term, error) {
	if len(in) != 2 || in[0].Type() != term.TypeString {
		return term.Term{}, fmt.Errorf("@%s expects a message and a tuple", errorCallable)
	}
	msg := fmt.Sprintf("%s; args=%s", in[0].Str(), in[1])
	sig, ok := strings.CutSuffix(in[0].Str(), " is blacklisted")
	if !ok {
		return term.Term{}, fmt.Errorf("%s", msg)
	}
	name, arity, _ := strings.Cut(sig, "/")
	n, _ := strconv.Atoi(arity)
	return term.Term{}, &aspskema.BlacklistError{
		Fact:  name,
		Arity: n,
		Issue: aspskema.Root().Field(name).Issue(aspskema.CodeBlacklisted, msg, "fact", name, "arity", n),
	}
}

// Constraints returns the validator and blacklist clauses in registration order.
func (c *Context) Constraints() []string { return append([]string(nil), c.validators...) }

// ValidatorsProgram is the engine text of all constraints.
func (c *Context) ValidatorsProgram() string { return strings.Join(c.validators, "\n") }

// Lookup resolves the callables of the validator program and the user
// callables, making c an engine.Callables.
func (c *Context) Lookup(name string) (engine.Callable, bool) {
	if fn, ok := c.internal[name]; ok {
		return fn, true
	}
	fn, ok := c.calls[name]
	return fn, ok
}

func (c *Context) warnf(format string, args ...any) {
	c.diag.Warnf(format, args...)
	c.logger.Warn(fmt.Sprintf(format, args...))
}

var _ engine.Callables = (*Context)(nil)
