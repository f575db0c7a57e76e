// Package compiler turns a validated schema document into ir.Schema.
package compiler

import (
	"regexp"

	"go.uber.org/zap"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/domain"
	"github.com/reoring/aspskema/internal/ir"
	"github.com/reoring/aspskema/schema"
)

// Options controls compilation.
type Options struct {
	Logger *zap.Logger
	// Diag collects non-fatal findings; nil discards them.
	Diag *aspskema.Warnings
}

// Compile validates doc and builds one ir.Fact per declared fact name, in
// document order. Nothing is returned unless the whole document is valid.
func Compile(doc *schema.Document, opts Options) (*ir.Schema, error) {
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Diag == nil {
		opts.Diag = &aspskema.Warnings{}
	}
	c := &compiler{log: opts.Logger, diag: opts.Diag}
	out := &ir.Schema{Config: c.config(doc.Root)}
	for _, name := range doc.Root.Keys() {
		if name == schema.ReservedKey {
			continue
		}
		raw, _ := doc.Root.Get(name)
		f := c.fact(domain.PredicateName(name), raw.(*schema.Map))
		c.log.Debug("compiled fact",
			zap.String("fact", name),
			zap.Int("arity", f.Arity()),
			zap.Stringer("mode", f.Mode),
			zap.Int("comparisons", len(f.Comparisons)),
			zap.Int("aggregates", len(f.Aggregates)))
		out.Facts = append(out.Facts, f)
	}
	return out, nil
}

type compiler struct {
	log  *zap.Logger
	diag *aspskema.Warnings
}

func (c *compiler) config(root *schema.Map) ir.Config {
	cfg := ir.Config{MaxArity: schema.DefaultMaxArity}
	raw, ok := root.Get(schema.ReservedKey)
	if !ok {
		return cfg
	}
	m := raw.(*schema.Map)
	cfg.AuxProgram = str(m, schema.KeyASP)
	cfg.AuxSource = str(m, schema.KeyGo)
	if v, ok := m.Get(schema.KeyMaxArity); ok {
		cfg.MaxArity = int(v.(int64))
	}
	if v, ok := m.Get(schema.KeyWrap); ok {
		for _, item := range v.([]any) {
			cfg.Wrap = append(cfg.Wrap, item.(string))
		}
	}
	return cfg
}

func (c *compiler) fact(name domain.PredicateName, m *schema.Map) *ir.Fact {
	f := &ir.Fact{Name: name, IsConstrained: true, AutoBlacklist: true}
	for _, key := range m.Keys() {
		if key == schema.ReservedKey {
			continue
		}
		raw, _ := m.Get(key)
		field, aggs := c.field(key, len(f.Fields), raw)
		f.Fields = append(f.Fields, field)
		f.Aggregates = append(f.Aggregates, aggs...)
	}

	mode := schema.ModeForwardImplicit
	if raw, ok := m.Get(schema.ReservedKey); ok {
		cfg := raw.(*schema.Map)
		for _, k := range []string{schema.KeyIsPredicate, schema.KeyValidatePredicate} {
			if v, ok := cfg.Get(k); ok {
				f.IsConstrained = v.(bool)
			}
		}
		for _, k := range []string{schema.KeyWithFun, schema.KeyConstructionMode} {
			if v, ok := cfg.Get(k); ok {
				mode = v.(string)
			}
		}
		if v, ok := cfg.Get(schema.KeyAutoBlacklist); ok {
			f.AutoBlacklist = v.(bool)
		}
		f.Hooks = ir.Hooks{
			AfterInit:       str(cfg, schema.KeyAfterInit),
			BeforeGrounding: str(cfg, schema.KeyBeforeGrounding),
			AfterGrounding:  str(cfg, schema.KeyAfterGrounding),
		}
		if v, ok := cfg.Get(schema.KeyHaving); ok {
			// already checked by schema.Validate
			cmps, _ := schema.ParseHaving(v)
			for _, cmp := range cmps {
				f.Comparisons = append(f.Comparisons, c.comparison(f, cmp.Left, cmp.Right, cmp.Op))
			}
		}
	}

	switch mode {
	case schema.ModeForward:
		f.Mode = ir.ModeForward
	case schema.ModeImplicit:
		f.Mode = ir.ModeImplicit
	case schema.ModeTuple:
		f.Mode = ir.ModeTuple
	default:
		f.Mode = ir.ModeImplicit
		if len(f.Fields) == 1 {
			f.Mode = ir.ModeForward
		}
	}
	return f
}

func (c *compiler) field(name string, index int, raw any) (ir.Field, []ir.Aggregate) {
	switch t := raw.(type) {
	case string:
		return newField(name, t), nil
	case *schema.Map:
		typ, _ := t.Get(schema.KeyType)
		f := newField(name, typ.(string))
		switch f.Kind {
		case ir.KindInteger:
			if v, ok := t.Get(schema.KeyMin); ok {
				f.Min, f.HasMin = v.(int64), true
			}
			if v, ok := t.Get(schema.KeyMax); ok {
				f.Max, f.HasMax = v.(int64), true
			}
			if v, ok := t.Get(schema.KeyEnum); ok {
				for _, item := range v.([]any) {
					f.IntEnum = append(f.IntEnum, item.(int64))
				}
			}
		case ir.KindString, ir.KindAlpha:
			for _, k := range []string{schema.KeyMin, schema.KeyMinLen} {
				if v, ok := t.Get(k); ok {
					f.Min, f.HasMin = v.(int64), true
				}
			}
			for _, k := range []string{schema.KeyMax, schema.KeyMaxLen} {
				if v, ok := t.Get(k); ok {
					f.Max, f.HasMax = v.(int64), true
				}
			}
			if v, ok := t.Get(schema.KeyEnum); ok {
				for _, item := range v.([]any) {
					f.StrEnum = append(f.StrEnum, item.(string))
				}
			}
			if v, ok := t.Get(schema.KeyPattern); ok {
				f.Pattern = regexp.MustCompile(v.(string))
			}
		}
		return f, aggregates(name, index, t)
	}
	return ir.Field{Name: name}, nil
}

func newField(name, typ string) ir.Field {
	f := ir.Field{Name: name}
	kind, ok := schema.CanonicalKind(typ)
	if !ok {
		f.Kind = ir.KindReference
		f.Ref = domain.PredicateName(typ)
		if cls, err := domain.NewClassName(typ); err == nil {
			f.Ref = cls.ToPredicate()
		}
		return f
	}
	switch kind {
	case schema.KindInteger:
		f.Kind, f.Min, f.Max = ir.KindInteger, domain.MinInt, domain.MaxInt
	case schema.KindString:
		f.Kind, f.Min, f.Max = ir.KindString, 0, domain.MaxInt
	case schema.KindAlpha:
		f.Kind, f.Min, f.Max = ir.KindAlpha, 0, domain.MaxInt
	default:
		f.Kind = ir.KindAny
	}
	return f
}

// aggregates lists the aggregates of one field: count, then sum_pos, then sum_neg.
func aggregates(field string, index int, m *schema.Map) []ir.Aggregate {
	var out []ir.Aggregate
	find := func(key string) (any, bool) {
		for _, k := range m.Keys() {
			if schema.CanonicalAggregateKey(k) == key {
				return m.Get(k)
			}
		}
		return nil, false
	}
	if raw, ok := find(schema.KeyCount); ok {
		a := ir.Aggregate{ID: field + "." + schema.KeyCount, Field: field, Index: index, Kind: ir.AggCount, Exceed: domain.MaxInt}
		bounds(raw, &a, schema.KeyMax, schema.KeyMin)
		out = append(out, a)
	}
	if raw, ok := find(schema.KeySumPos); ok {
		a := ir.Aggregate{ID: field + "." + schema.KeySumPos, Field: field, Index: index, Kind: ir.AggSumPos, Exceed: domain.MaxInt}
		bounds(raw, &a, schema.KeyMax, schema.KeyMin)
		out = append(out, a)
	}
	if raw, ok := find(schema.KeySumNeg); ok {
		a := ir.Aggregate{ID: field + "." + schema.KeySumNeg, Field: field, Index: index, Kind: ir.AggSumNeg, Exceed: domain.MinInt}
		bounds(raw, &a, schema.KeyMin, schema.KeyMax)
		out = append(out, a)
	}
	return out
}

func bounds(raw any, a *ir.Aggregate, exceedKey, reachKey string) {
	m, ok := raw.(*schema.Map)
	if !ok {
		return
	}
	if v, ok := m.Get(exceedKey); ok {
		a.Exceed = v.(int64)
	}
	if v, ok := m.Get(reachKey); ok {
		a.Reach, a.HasReach = v.(int64), true
	}
}

func str(m *schema.Map, key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}
