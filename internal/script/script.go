// Package script compiles user code fragments of a schema (the auxiliary
// Go source and the hook bodies) with the yaegi interpreter.
package script

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/reoring/aspskema/term"
)

// HookKind selects the signature a hook body is compiled with.
type HookKind int

const (
	// InstanceHook bodies see the constructed fields as `self`.
	InstanceHook HookKind = iota
	// ClassHook bodies take no arguments.
	ClassHook
)

// Hook is one body to compile under a unique function name.
type Hook struct {
	Name string
	Kind HookKind
	Body string
}

// InstanceFunc is the compiled form of an InstanceHook.
type InstanceFunc func(self map[string]interface{}) error

// ClassFunc is the compiled form of a ClassHook.
type ClassFunc func() error

// Program is the interpreted code of one schema.
type Program struct {
	interp *interp.Interpreter
	funcs  []string
	hooks  map[string]Hook
}

// always available to hook bodies
var defaultImports = []string{"errors", "fmt", "strings"}

// Compile evaluates aux (a Go snippet, package clause optional) together
// with the hook bodies as a single package main.
func Compile(aux string, hooks []Hook) (*Program, error) {
	unit, err := splitSource(aux)
	if err != nil {
		return nil, err
	}
	p := &Program{funcs: unit.funcs, hooks: map[string]Hook{}}
	src := &strings.Builder{}
	src.WriteString("package main\n\nimport (\n")
	for _, imp := range mergeImports(unit.imports) {
		fmt.Fprintf(src, "\t%s\n", imp)
	}
	src.WriteString(")\n\nvar _, _, _ = errors.New, fmt.Sprint, strings.TrimSpace\n\n")
	src.WriteString(unit.body)
	src.WriteString("\n")
	for _, h := range hooks {
		if _, dup := p.hooks[h.Name]; dup {
			return nil, fmt.Errorf("hook %s defined twice", h.Name)
		}
		p.hooks[h.Name] = h
		switch h.Kind {
		case InstanceHook:
			fmt.Fprintf(src, "\nfunc %s(self map[string]interface{}) error {\n%s\n\treturn nil\n}\n", h.Name, h.Body)
		case ClassHook:
			fmt.Fprintf(src, "\nfunc %s() error {\n%s\n\treturn nil\n}\n", h.Name, h.Body)
		}
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if _, err := i.Eval(src.String()); err != nil {
		return nil, fmt.Errorf("code evaluation failed: %w", err)
	}
	p.interp = i
	return p, nil
}

// Funcs lists the top-level functions of the auxiliary source in source order.
func (p *Program) Funcs() []string { return append([]string(nil), p.funcs...) }

// Value returns the interpreted value of a top-level identifier.
func (p *Program) Value(name string) (reflect.Value, error) {
	v, err := p.interp.Eval("main." + name)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%s not found: %w", name, err)
	}
	return v, nil
}

// Instance returns a compiled InstanceHook.
func (p *Program) Instance(name string) (InstanceFunc, error) {
	v, err := p.Value(name)
	if err != nil {
		return nil, err
	}
	fn, ok := v.Interface().(func(map[string]interface{}) error)
	if !ok {
		return nil, fmt.Errorf("%s has incorrect signature (expected: func(map[string]interface{}) error)", name)
	}
	return fn, nil
}

// Class returns a compiled ClassHook or an auxiliary function usable as one.
// Functions with parameters are reported through *SignatureError.
func (p *Program) Class(name string) (ClassFunc, error) {
	v, err := p.Value(name)
	if err != nil {
		return nil, err
	}
	switch fn := v.Interface().(type) {
	case func() error:
		return fn, nil
	case func():
		return func() error { fn(); return nil }, nil
	}
	return nil, &SignatureError{Name: name, Type: v.Type().String(), Params: v.Type().NumIn()}
}

// SignatureError reports an interpreted function that cannot be called as expected.
type SignatureError struct {
	Name   string
	Type   string
	Params int
}

func (e *SignatureError) Error() string {
	if e.Params > 0 {
		return fmt.Sprintf("%s has parameters (%s)", e.Name, e.Type)
	}
	return fmt.Sprintf("%s has incorrect signature (%s)", e.Name, e.Type)
}

type sourceUnit struct {
	imports []string // rendered import specs
	funcs   []string
	body    string
}

// splitSource separates the imports of aux from its declarations.
func splitSource(aux string) (sourceUnit, error) {
	if strings.TrimSpace(aux) == "" {
		return sourceUnit{}, nil
	}
	src := aux
	if !strings.HasPrefix(strings.TrimSpace(aux), "package ") {
		src = "package main\n" + aux
	}
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "aux.go", src, 0)
	if err != nil {
		return sourceUnit{}, fmt.Errorf("auxiliary source: %w", err)
	}
	if f.Name.Name != "main" {
		return sourceUnit{}, fmt.Errorf("auxiliary source: package must be main, found %s", f.Name.Name)
	}
	u := sourceUnit{}
	start := fset.Position(f.Name.End()).Offset
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok == token.IMPORT {
				start = fset.Position(d.End()).Offset
			}
		case *ast.FuncDecl:
			if d.Recv == nil {
				u.funcs = append(u.funcs, d.Name.Name)
			}
		}
	}
	for _, spec := range f.Imports {
		imp := spec.Path.Value
		if spec.Name != nil {
			imp = spec.Name.Name + " " + imp
		}
		u.imports = append(u.imports, imp)
	}
	u.body = src[start:]
	return u, nil
}

func mergeImports(extra []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range defaultImports {
		imp := strconv.Quote(p)
		seen[imp] = true
		out = append(out, imp)
	}
	for _, imp := range extra {
		if !seen[imp] {
			seen[imp] = true
			out = append(out, imp)
		}
	}
	sort.Strings(out[len(defaultImports):])
	return out
}

// Callable adapts an auxiliary function of type
// func([]interface{}) (interface{}, error) to engine terms.
func (p *Program) Callable(name string) (func(args []term.Term) (term.Term, error), error) {
	v, err := p.Value(name)
	if err != nil {
		return nil, err
	}
	fn, ok := v.Interface().(func([]interface{}) (interface{}, error))
	if !ok {
		return nil, &SignatureError{Name: name, Type: v.Type().String()}
	}
	return func(args []term.Term) (term.Term, error) {
		in := make([]interface{}, len(args))
		for i, a := range args {
			in[i] = ToGo(a)
		}
		out, err := fn(in)
		if err != nil {
			return term.Term{}, err
		}
		return FromGo(out)
	}, nil
}
