package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/engine"
	"github.com/reoring/aspskema/engine/ground"
	"github.com/reoring/aspskema/engine/mangle"
	"github.com/reoring/aspskema/i18n"
	"github.com/reoring/aspskema/internal/compiler"
	"github.com/reoring/aspskema/kernel"
	"github.com/reoring/aspskema/schema"
)

// errValidation is returned once the failure has already been reported.
var errValidation = errors.New("validation failed")

type validateOptions struct {
	print  bool
	engine string
	json   bool
}

// report is the --json output.
type report struct {
	Valid       bool         `json:"valid"`
	Warnings    []string     `json:"warnings,omitempty"`
	Constraints []string     `json:"constraints,omitempty"`
	Models      []string     `json:"models,omitempty"`
	Error       *issueReport `json:"error,omitempty"`
}

type issueReport struct {
	Code    string         `json:"code,omitempty"`
	Path    string         `json:"path,omitempty"`
	Message string         `json:"message"`
	Summary string         `json:"summary,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	o := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate SCHEMA [FACTS...]",
		Short: "Validate facts against a schema",
		Long: `Validate compiles SCHEMA, grounds the FACTS files together with the
generated validators and prints the answer when every fact is valid.

A schema file ending in .json is read as JSON, anything else as YAML.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate(cmd, o, args[0], args[1:])
		},
	}
	cmd.Flags().BoolVar(&o.print, "print", false, "Print the generated validator program")
	cmd.Flags().StringVar(&o.engine, "engine", "ground", "Engine used for grounding (ground|mangle)")
	cmd.Flags().BoolVar(&o.json, "json", false, "Print a JSON report")
	return cmd
}

func (a *app) newEngine(name string) (engine.Engine, error) {
	switch name {
	case "ground":
		return ground.New(ground.WithLogger(a.logger)), nil
	case "mangle":
		return mangle.New(mangle.WithLogger(a.logger)), nil
	}
	return nil, fmt.Errorf("unknown engine %q (expected ground or mangle)", name)
}

func loadDocument(path string) (*schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return schema.LoadJSON(f)
	}
	return schema.LoadYAML(f)
}

func readFacts(paths []string) (string, error) {
	var b strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (a *app) validate(cmd *cobra.Command, o *validateOptions, schemaPath string, factPaths []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	eng, err := a.newEngine(o.engine)
	if err != nil {
		return err
	}
	rep := &report{}
	fail := func(err error, text string) error {
		if o.json {
			rep.Error = newIssueReport(err, text)
			return writeReport(out, rep)
		}
		fmt.Fprintf(errOut, "VALIDATION FAILED\n=================\n%s\n=================\n", text)
		return errValidation
	}

	doc, err := loadDocument(schemaPath)
	if err != nil {
		return fail(err, err.Error())
	}
	diag := &aspskema.Warnings{}
	sch, err := compiler.Compile(doc, compiler.Options{Logger: a.logger, Diag: diag})
	if err != nil {
		return fail(err, err.Error())
	}
	ctx, err := kernel.Load(sch, kernel.WithLogger(a.logger), kernel.WithDiag(diag))
	if err != nil {
		return fail(err, err.Error())
	}
	if diag.HasWarnings() {
		rep.Warnings = diag.Warnings()
	}
	if !o.json {
		for _, w := range rep.Warnings {
			fmt.Fprintf(errOut, "WARNING: %s\n", w)
		}
	}
	if o.print {
		rep.Constraints = ctx.Constraints()
		if !o.json {
			fmt.Fprintln(out, ctx.ValidatorsProgram())
		}
	}
	if len(factPaths) == 0 {
		if o.json {
			rep.Valid = true
			return writeReport(out, rep)
		}
		return nil
	}

	facts, err := readFacts(factPaths)
	if err != nil {
		return err
	}
	if err := eng.AddProgram(engine.BasePart, facts); err != nil {
		return fail(err, err.Error())
	}
	err = ctx.Run(cmd.Context(), eng, kernel.RunOptions{
		Solve: true,
		OnValidationDone: func() {
			rep.Valid = true
			if !o.json {
				fmt.Fprintln(out, "ALL VALID!\n==========")
			}
		},
		OnModel: func(m engine.Model) error {
			rep.Models = append(rep.Models, m.String())
			if !o.json {
				fmt.Fprintf(out, "Answer: %s\n==========\n", m)
			}
			return nil
		},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		a.logger.Debug("validation failed", zap.Error(err))
		rep.Valid = false
		return fail(err, kernel.ExtractErrorMessage(err))
	}
	if o.json {
		return writeReport(out, rep)
	}
	return nil
}

func newIssueReport(err error, text string) *issueReport {
	r := &issueReport{Message: text}
	if iss, ok := aspskema.AsIssue(err); ok {
		r.Code = iss.Code
		r.Path = iss.Path
		r.Params = iss.Params
		r.Summary = i18n.T(iss.Code, stringParams(iss.Params))
	}
	return r
}

func stringParams(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		switch t := v.(type) {
		case string:
			out[k] = t
		case int:
			out[k] = strconv.Itoa(t)
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

func writeReport(w io.Writer, rep *report) error {
	enc := j.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	if !rep.Valid {
		return errValidation
	}
	return nil
}
