package kernel

import (
	"errors"
	"strings"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/engine"
	"github.com/reoring/aspskema/internal/ir"
	"github.com/reoring/aspskema/internal/script"
	"github.com/reoring/aspskema/internal/synth"
	"github.com/reoring/aspskema/schema"
)

// Load builds a Context for a compiled schema: it interprets the schema's
// code, exposes the wrapped callables and registers one class per fact.
// Options given here are applied after the schema configuration.
func Load(sch *ir.Schema, opts ...Option) (*Context, error) {
	prog, err := compileCode(sch)
	if err != nil {
		return nil, err
	}
	base := []Option{WithMaxArity(sch.Config.MaxArity), WithAuxProgram(sch.Config.AuxProgram)}
	if len(sch.Config.Wrap) > 0 {
		calls, err := wrapped(prog, sch.Config.Wrap)
		if err != nil {
			return nil, err
		}
		base = append(base, WithCallables(calls))
	}
	c, err := New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	for _, f := range sch.Facts {
		hooks, err := c.hookOptions(prog, f)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, synth.WithLogger(c.logger))
		if err := c.Register(synth.New(f, c.acc, c.Resolver(), hooks...)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func hookName(f *ir.Fact, hook string) string {
	return ReservedPrefix + "_" + string(f.Name) + "_" + hook
}

func compileCode(sch *ir.Schema) (*script.Program, error) {
	var hooks []script.Hook
	for _, f := range sch.Facts {
		if f.Hooks.AfterInit != "" {
			hooks = append(hooks, script.Hook{Name: hookName(f, schema.KeyAfterInit), Kind: script.InstanceHook, Body: f.Hooks.AfterInit})
		}
		if f.Hooks.BeforeGrounding != "" {
			hooks = append(hooks, script.Hook{Name: hookName(f, schema.KeyBeforeGrounding), Kind: script.ClassHook, Body: f.Hooks.BeforeGrounding})
		}
		if f.Hooks.AfterGrounding != "" {
			hooks = append(hooks, script.Hook{Name: hookName(f, schema.KeyAfterGrounding), Kind: script.ClassHook, Body: f.Hooks.AfterGrounding})
		}
	}
	if len(hooks) == 0 && strings.TrimSpace(sch.Config.AuxSource) == "" {
		return nil, nil
	}
	prog, err := script.Compile(sch.Config.AuxSource, hooks)
	if err != nil {
		return nil, aspskema.SchemaErrorAt(aspskema.Root().Field(schema.ReservedKey).Field(schema.KeyGo), aspskema.CodeHook, err.Error())
	}
	return prog, nil
}

func wrapped(prog *script.Program, names []string) (map[string]engine.Callable, error) {
	out := map[string]engine.Callable{}
	p := aspskema.Root().Field(schema.ReservedKey).Field(schema.KeyWrap)
	for i, name := range names {
		if prog == nil {
			return nil, aspskema.SchemaErrorAt(p.Index(i), aspskema.CodeHook, name+" not found")
		}
		fn, err := prog.Callable(name)
		if err != nil {
			return nil, aspskema.SchemaErrorAt(p.Index(i), aspskema.CodeHook, err.Error())
		}
		out[name] = fn
	}
	return out, nil
}

// hookOptions collects the hooks of f: the bodies declared in the schema,
// then the auxiliary functions named <Class>_check*, <Class>_before_grounding*
// and <Class>_after_grounding*. Functions that cannot be called are skipped
// with a warning.
func (c *Context) hookOptions(prog *script.Program, f *ir.Fact) ([]synth.Option, error) {
	if prog == nil {
		return nil, nil
	}
	var opts []synth.Option
	if f.Hooks.AfterInit != "" {
		fn, err := prog.Instance(hookName(f, schema.KeyAfterInit))
		if err != nil {
			return nil, err
		}
		opts = append(opts, synth.WithAfterInit(fn))
	}
	if f.Hooks.BeforeGrounding != "" {
		fn, err := prog.Class(hookName(f, schema.KeyBeforeGrounding))
		if err != nil {
			return nil, err
		}
		opts = append(opts, synth.WithBeforeGrounding(schema.KeyBeforeGrounding, fn))
	}
	if f.Hooks.AfterGrounding != "" {
		fn, err := prog.Class(hookName(f, schema.KeyAfterGrounding))
		if err != nil {
			return nil, err
		}
		opts = append(opts, synth.WithAfterGrounding(schema.KeyAfterGrounding, fn))
	}

	class := string(f.Class())
	for _, name := range prog.Funcs() {
		method, ok := strings.CutPrefix(name, class+"_")
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(method, "check"):
			fn, err := prog.Instance(name)
			if err != nil {
				c.warnf("ignore method %s of class %s because it has an incorrect signature", method, class)
				continue
			}
			opts = append(opts, synth.WithCheck(method, fn))
		case strings.HasPrefix(method, schema.KeyBeforeGrounding), strings.HasPrefix(method, schema.KeyAfterGrounding):
			fn, err := prog.Class(name)
			var se *script.SignatureError
			if errors.As(err, &se) {
				reason := "an incorrect signature"
				if se.Params > 0 {
					reason = "parameters"
				}
				c.warnf("ignore method %s of class %s because it has %s", method, class, reason)
				continue
			}
			if err != nil {
				return nil, err
			}
			if strings.HasPrefix(method, schema.KeyBeforeGrounding) {
				opts = append(opts, synth.WithBeforeGrounding(method, fn))
			} else {
				opts = append(opts, synth.WithAfterGrounding(method, fn))
			}
		}
	}
	return opts, nil
}
