package benchmarks_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/reoring/aspskema/engine"
	"github.com/reoring/aspskema/engine/ground"
	"github.com/reoring/aspskema/engine/mangle"
	"github.com/reoring/aspskema/internal/compiler"
	"github.com/reoring/aspskema/kernel"
	"github.com/reoring/aspskema/schema"
	"github.com/reoring/aspskema/term"
)

const pointSchema = `
point:
  x:
    type: Integer
    min: 0
    max: 1000
    sum_pos:
      max: 1000000
  y: Integer
  valasp:
    having:
      - x <= y
`

// --- Fixtures ---

func loadContext(tb testing.TB) *kernel.Context {
	tb.Helper()
	doc, err := schema.LoadYAML(strings.NewReader(pointSchema))
	if err != nil {
		tb.Fatalf("load schema: %v", err)
	}
	sch, err := compiler.Compile(doc, compiler.Options{})
	if err != nil {
		tb.Fatalf("compile schema: %v", err)
	}
	ctx, err := kernel.Load(sch)
	if err != nil {
		tb.Fatalf("load context: %v", err)
	}
	return ctx
}

// facts renders n point facts, with a comma-separated variant for Mangle.
func facts(n int, sep string) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "point(%d,%s%d).\n", i%1000, sep, i%1000+1)
	}
	return b.String()
}

func benchmarkRun(b *testing.B, n int, newEngine func() engine.Engine, sep string) {
	ctx := context.Background()
	kctx := loadContext(b)
	program := facts(n, sep)
	b.ReportAllocs()
	b.SetBytes(int64(len(program)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eng := newEngine()
		if err := eng.AddProgram(engine.BasePart, program); err != nil {
			b.Fatal(err)
		}
		if err := kctx.Run(ctx, eng, kernel.RunOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Engines ---

func Benchmark_Ground_Points_100(b *testing.B) {
	benchmarkRun(b, 100, func() engine.Engine { return ground.New() }, "")
}

func Benchmark_Ground_Points_1000(b *testing.B) {
	benchmarkRun(b, 1000, func() engine.Engine { return ground.New() }, "")
}

func Benchmark_Mangle_Points_100(b *testing.B) {
	benchmarkRun(b, 100, func() engine.Engine { return mangle.New() }, " ")
}

func Benchmark_Mangle_Points_1000(b *testing.B) {
	benchmarkRun(b, 1000, func() engine.Engine { return mangle.New() }, " ")
}

// --- Construction only ---

func Benchmark_Construct_Point(b *testing.B) {
	kctx := loadContext(b)
	validate, ok := kctx.Lookup("valasp_validate_point")
	if !ok {
		b.Fatal("validator not registered")
	}
	args := []term.Term{term.MustParse("point(3,4)")}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := validate(args); err != nil {
			b.Fatal(err)
		}
	}
}
