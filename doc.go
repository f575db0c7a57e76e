// Package aspskema holds the error model shared by the schema compiler and
// the validation runtime.
//
// The other packages provide:
//
// - domain: symbol names and the bounded integer domain
// - schema: loading (YAML/JSON) and structural validation of schema documents
// - internal/compiler, internal/synth: compilation into per-fact validators
// - kernel: the validation runtime driving a logic engine in three phases
// - engine, engine/ground, engine/mangle: the engine interface and backends
// - cmd/aspskema: the command line
//
// Typical usage:
//
//	doc, err := schema.LoadYAML(r)
//	sch, err := compiler.Compile(doc, compiler.Options{})
//	ctx, err := kernel.Load(sch)
//	eng := ground.New()
//	err = eng.AddProgram(engine.BasePart, facts)
//	err = ctx.Run(context.Background(), eng, kernel.RunOptions{Solve: true})
package aspskema
