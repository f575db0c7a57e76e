package kernel_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/domain"
	"github.com/reoring/aspskema/engine"
	"github.com/reoring/aspskema/engine/ground"
	"github.com/reoring/aspskema/engine/mangle"
	"github.com/reoring/aspskema/internal/compiler"
	"github.com/reoring/aspskema/internal/ir"
	"github.com/reoring/aspskema/internal/synth"
	"github.com/reoring/aspskema/kernel"
	"github.com/reoring/aspskema/schema"
	"github.com/reoring/aspskema/term"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func load(t *testing.T, src string, opts ...kernel.Option) *kernel.Context {
	t.Helper()
	doc, err := schema.LoadYAML(strings.NewReader(src))
	require.NoError(t, err)
	sch, err := compiler.Compile(doc, compiler.Options{})
	require.NoError(t, err)
	c, err := kernel.Load(sch, opts...)
	require.NoError(t, err)
	return c
}

type result struct {
	valid  bool
	models []engine.Model
	err    error
}

func run(t *testing.T, c *kernel.Context, eng engine.Engine, facts string) result {
	t.Helper()
	require.NoError(t, eng.AddProgram(engine.BasePart, facts))
	var r result
	r.err = c.Run(context.Background(), eng, kernel.RunOptions{
		OnValidationDone: func() { r.valid = true },
		OnModel: func(m engine.Model) error {
			r.models = append(r.models, m)
			return nil
		},
		Solve: true,
	})
	return r
}

const pointSchema = `
point:
  x:
    type: Integer
    min: 0
    max: 10
  y: Integer
`

func TestNew_MaxArity(t *testing.T) {
	for _, n := range []int{0, 100} {
		_, err := kernel.New(kernel.WithMaxArity(n))
		assert.Error(t, err)
	}
	c, err := kernel.New(kernel.WithMaxArity(2))
	require.NoError(t, err)
	require.NoError(t, c.Blacklist("p"))
	assert.Len(t, c.Constraints(), 2)
	assert.Error(t, c.Blacklist("p", 3))
}

func TestRegister_Reserved(t *testing.T) {
	c, err := kernel.New()
	require.NoError(t, err)
	fact := func(name string) *ir.Fact {
		return &ir.Fact{Name: domain.PredicateName(name), Fields: []ir.Field{{Name: "v", Kind: ir.KindAny}}, Mode: ir.ModeForward}
	}
	f := fact("valasp_thing")
	var re *kernel.RegistrationError
	require.ErrorAs(t, c.Register(synth.New(f, c.Accumulators(), c.Resolver())), &re)
	assert.Equal(t, "Valasp_thing is reserved", re.Error())

	require.NoError(t, c.Register(synth.New(fact("x"), c.Accumulators(), c.Resolver())))
	require.ErrorAs(t, c.Register(synth.New(fact("x"), c.Accumulators(), c.Resolver())), &re)

	_, err = kernel.New(kernel.WithCallables(map[string]engine.Callable{
		"valasp_mine": func([]term.Term) (term.Term, error) { return term.Number(1), nil },
	}))
	require.ErrorAs(t, err, &re)
}

func TestConstraints(t *testing.T) {
	c := load(t, "valasp:\n  max_arity: 2\n"+pointSchema+`
value:
  v: Integer
pair:
  a: Integer
  b: Integer
  valasp:
    with_fun: TUPLE
helper:
  h: Integer
  valasp:
    is_predicate: false
`)
	assert.Equal(t, []string{
		":- point(X0,X1); @valasp_validate_point(point(X0,X1)) != 1.",
		":- point(X0); @valasp_error(\"point/1 is blacklisted\", (X0,)) == 1.\npoint(X0) :- point(X0).",
		":- value(X0); @valasp_validate_value(X0) != 1.",
		":- value(X0,X1); @valasp_error(\"value/2 is blacklisted\", (X0,X1,)) == 1.\nvalue(X0,X1) :- value(X0,X1).",
		":- pair(X0,X1); @valasp_validate_pair((X0,X1,)) != 1.",
		":- pair(X0); @valasp_error(\"pair/1 is blacklisted\", (X0,)) == 1.\npair(X0) :- pair(X0).",
		":- helper(X0,X1); @valasp_error(\"helper/2 is blacklisted\", (X0,X1,)) == 1.\nhelper(X0,X1) :- helper(X0,X1).",
	}, c.Constraints())
	assert.Equal(t, strings.Join(c.Constraints(), "\n"), c.ValidatorsProgram())
	_, ok := c.Class("helper")
	assert.True(t, ok)

	_, err := engine.ParseProgram(c.ValidatorsProgram())
	assert.NoError(t, err)
}

func TestRun_Valid(t *testing.T) {
	c := load(t, pointSchema)
	r := run(t, c, ground.New(), "point(0,5). point(10,-3).")
	require.NoError(t, r.err)
	assert.True(t, r.valid)
	require.Len(t, r.models, 1)
	assert.Equal(t, "point(0,5) point(10,-3)", r.models[0].String())
}

func TestRun_InvalidInstance(t *testing.T) {
	c := load(t, pointSchema)
	r := run(t, c, ground.New(), "point(1,2). point(-1,2).")
	require.Error(t, r.err)
	assert.False(t, r.valid)
	assert.Empty(t, r.models)

	var ge *engine.GroundError
	require.ErrorAs(t, r.err, &ge)
	var ce *aspskema.ConstructionError
	require.ErrorAs(t, r.err, &ce)
	assert.Equal(t, aspskema.CodeTooSmall, ce.Code)
	assert.Equal(t, "Invalid instance of point:\n"+
		"    in constructor of point\n"+
		"  with error: Should be >= 0. Received: -1 in atom point(-1,2)",
		kernel.ExtractErrorMessage(r.err))
}

func TestRun_Aggregates(t *testing.T) {
	const items = `
item:
  value:
    type: Integer
    sum_pos:
      min: 10
      max: 100
`
	r := run(t, load(t, items), ground.New(), "item(50). item(40). item(5).")
	require.NoError(t, r.err)
	assert.True(t, r.valid)

	r = run(t, load(t, items), ground.New(), "item(50). item(40). item(20).")
	var ae *aspskema.AggregateError
	require.ErrorAs(t, r.err, &ae)
	assert.Equal(t, "sum of value in predicate item may exceed 100", ae.Error())
	assert.False(t, r.valid)
}

func TestRun_AutoBlacklist(t *testing.T) {
	const src = `
valasp:
  max_arity: 3
p:
  a: Integer
  b: Integer
  valasp:
    auto_blacklist: true
`
	c := load(t, src)
	assert.Equal(t, []string{
		":- p(X0,X1); @valasp_validate_p(p(X0,X1)) != 1.",
		":- p(X0); @valasp_error(\"p/1 is blacklisted\", (X0,)) == 1.\np(X0) :- p(X0).",
		":- p(X0,X1,X2); @valasp_error(\"p/3 is blacklisted\", (X0,X1,X2,)) == 1.\np(X0,X1,X2) :- p(X0,X1,X2).",
	}, c.Constraints())

	for facts, arity := range map[string]int{"p(1,2). p(1).": 1, "p(1,2,3).": 3} {
		r := run(t, load(t, src), ground.New(), facts)
		var be *aspskema.BlacklistError
		require.ErrorAs(t, r.err, &be, facts)
		assert.Equal(t, "p", be.Fact)
		assert.Equal(t, arity, be.Arity)
		assert.Equal(t, aspskema.CodeBlacklisted, be.Code)
	}
	r := run(t, load(t, src), ground.New(), "p(1,2).")
	assert.NoError(t, r.err)
}

func TestRun_AutoBlacklistByDefault(t *testing.T) {
	r := run(t, load(t, "point:\n  x: Integer\n"), ground.New(), "point(1). point(1,2).")
	var be *aspskema.BlacklistError
	require.ErrorAs(t, r.err, &be)
	assert.Equal(t, "point", be.Fact)
	assert.Equal(t, 2, be.Arity)

	c := load(t, "point:\n  x: Integer\n  valasp:\n    auto_blacklist: false\n")
	assert.Len(t, c.Constraints(), 1)
	r = run(t, c, ground.New(), "point(1). point(1,2).")
	assert.NoError(t, r.err)
}

func TestRun_References(t *testing.T) {
	c := load(t, `
date:
  year: Integer
  month:
    type: Integer
    min: 1
    max: 12
  day: Integer
  valasp:
    is_predicate: false
bday:
  name: Alpha
  date: Date
`)
	r := run(t, c, ground.New(), `bday(sofia,date(2019,6,25)). bday(leo,date(2018,13,1)).`)
	require.Error(t, r.err)
	assert.Equal(t, "Invalid instance of bday:\n"+
		"    in constructor of bday\n"+
		"    in constructor of date\n"+
		"  with error: Should be <= 12. Received: 13 in atom bday(leo,date(2018,13,1))",
		kernel.ExtractErrorMessage(r.err))
}

func TestLoad_Code(t *testing.T) {
	diag := &aspskema.Warnings{}
	c := load(t, `
valasp:
  go: |
    var seen int

    func double(args []interface{}) (interface{}, error) {
        return args[0].(int) * 2, nil
    }

    func Point_before_grounding_bad(n int) {}

    func Point_before_grounding_reset() {
        seen = 0
    }

    func Point_after_grounding_report() error {
        if seen == 0 {
            return errors.New("no points")
        }
        return nil
    }
  wrap: [double]
  asp: |
    twice(X) :- point(X,Y), @double(X) == Y.
point:
  x: Integer
  y: Integer
  valasp:
    after_init: |
      seen++
      if self["x"].(int) == 3 {
          return errors.New("three is not allowed")
      }
`, kernel.WithDiag(diag))
	assert.Equal(t, []string{"ignore method before_grounding_bad of class Point because it has parameters"}, diag.Warnings())
	assert.Equal(t, diag.Warnings(), c.Warnings())

	r := run(t, c, ground.New(), "point(1,2). point(2,5).")
	require.NoError(t, r.err)
	require.Len(t, r.models, 1)
	assert.True(t, r.models[0].Contains(term.MustParse("twice(1)")))
	assert.False(t, r.models[0].Contains(term.MustParse("twice(2)")))

	r = run(t, c, ground.New(), "point(3,6).")
	assert.Equal(t, "Invalid instance of point:\n"+
		"    in constructor of point\n"+
		"    in method after_init of point\n"+
		"  with error: three is not allowed in atom point(3,6)",
		kernel.ExtractErrorMessage(r.err))

	r = run(t, c, ground.New(), "other(1).")
	require.Error(t, r.err)
	assert.Equal(t, "method after_grounding_report of point\n  with error: no points",
		kernel.ExtractErrorMessage(r.err))
}

func TestLoad_WrapErrors(t *testing.T) {
	for name, src := range map[string]string{
		"missing function": "valasp:\n  go: \"var x = 1\"\n  wrap: [nope]\np:\n  a: Integer\n",
		"bad signature":    "valasp:\n  go: \"func f(n int) int { return n }\"\n  wrap: [f]\np:\n  a: Integer\n",
		"no code":          "valasp:\n  wrap: [f]\np:\n  a: Integer\n",
		"syntax":           "valasp:\n  go: \"func (\"\np:\n  a: Integer\n",
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := schema.LoadYAML(strings.NewReader(src))
			require.NoError(t, err)
			sch, err := compiler.Compile(doc, compiler.Options{})
			require.NoError(t, err)
			_, err = kernel.Load(sch)
			var se *aspskema.SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, aspskema.CodeHook, se.Code)
		})
	}
}

func TestCompile_UndefinedTypeBeforeRuntime(t *testing.T) {
	doc, err := schema.LoadYAML(strings.NewReader("bday:\n  name: Alpha\n  date: Date\n"))
	require.NoError(t, err)
	_, err = compiler.Compile(doc, compiler.Options{})
	var se *aspskema.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, aspskema.CodeUndefinedType, se.Code)
}

func TestRun_Mangle(t *testing.T) {
	c := load(t, pointSchema)
	r := run(t, c, mangle.New(), "point(1, 2).\npoint(3, 4).")
	require.NoError(t, r.err)
	assert.True(t, r.valid)

	c = load(t, pointSchema)
	r = run(t, c, mangle.New(), "point(11, 2).")
	assert.Equal(t, "Invalid instance of point:\n"+
		"    in constructor of point\n"+
		"  with error: Should be <= 10. Received: 11 in atom point(11,2)",
		kernel.ExtractErrorMessage(r.err))
}

func TestRun_SkipValidators(t *testing.T) {
	c := load(t, pointSchema)
	eng := ground.New()
	require.NoError(t, eng.AddProgram(engine.BasePart, "point(-5,0)."))
	done := false
	err := c.Run(context.Background(), eng, kernel.RunOptions{
		SkipValidators:   true,
		OnValidationDone: func() { done = true },
	})
	require.NoError(t, err)
	assert.True(t, done)
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", kernel.ExtractErrorMessage(nil))
	plain := &aspskema.AggregateError{Issue: aspskema.Issue{Message: "count of x in predicate p cannot reach 1"}}
	assert.Equal(t, "count of x in predicate p cannot reach 1", kernel.ExtractErrorMessage(plain))
}
