package compiler

import (
	"github.com/reoring/aspskema/internal/ir"
	"github.com/reoring/aspskema/rules"
)

func (c *compiler) comparison(f *ir.Fact, left, right string, op rules.Op) ir.Comparison {
	cmp := ir.Comparison{Left: left, Right: right, Op: op, LIndex: f.FieldIndex(left), RIndex: f.FieldIndex(right)}
	lk, rk := f.Fields[cmp.LIndex], f.Fields[cmp.RIndex]
	if !sameKind(lk, rk) {
		c.diag.Warnf("%s: comparison %s mixes %s and %s; values are ordered by engine term order", f.Name, cmp, describe(lk), describe(rk))
	}
	return cmp
}

func sameKind(a, b ir.Field) bool {
	if a.Kind == ir.KindAny || b.Kind == ir.KindAny {
		return true
	}
	return a.Kind == b.Kind && a.Ref == b.Ref
}

func describe(f ir.Field) string {
	if f.Kind == ir.KindReference {
		return f.Ref.ToClass().String()
	}
	return f.Kind.String()
}
