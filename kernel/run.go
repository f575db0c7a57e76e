package kernel

import (
	"context"
	"strings"

	"go.uber.org/zap"

	aspskema "github.com/reoring/aspskema"
	"github.com/reoring/aspskema/engine"
)

// RunOptions controls Run.
type RunOptions struct {
	// OnValidationDone is called once grounding and the aggregate checks passed.
	OnValidationDone func()
	// OnModel receives the models found when Solve is set.
	OnModel func(engine.Model) error
	Solve   bool
	// SkipValidators grounds without the validator part and class hooks.
	SkipValidators bool
}

// Run drives eng through the validation protocol. The facts to validate
// must already be in engine.BasePart.
func (c *Context) Run(ctx context.Context, eng engine.Engine, opts RunOptions) error {
	c.phase(aspskema.PhaseSetup)
	if !opts.SkipValidators {
		if err := eng.AddProgram(engine.ValidatorPart, c.ValidatorsProgram()); err != nil {
			return err
		}
		for _, cls := range c.classes {
			if err := cls.BeforeGrounding(); err != nil {
				return err
			}
		}
	}
	if strings.TrimSpace(c.auxProgram) != "" {
		if err := eng.AddProgram(engine.AuxPart, c.auxProgram); err != nil {
			return err
		}
	}

	c.phase(aspskema.PhaseGrounding)
	if err := eng.Ground(ctx, []string{engine.BasePart, engine.ValidatorPart, engine.AuxPart}, c); err != nil {
		return err
	}

	if !opts.SkipValidators {
		c.phase(aspskema.PhaseCheck)
		for _, cls := range c.classes {
			if err := cls.AfterGrounding(); err != nil {
				return err
			}
		}
	}
	if opts.OnValidationDone != nil {
		opts.OnValidationDone()
	}
	if !opts.Solve {
		return nil
	}
	c.phase(aspskema.PhaseSolve)
	return eng.Solve(ctx, opts.OnModel)
}

func (c *Context) phase(p aspskema.Phase) {
	c.logger.Debug("validation phase", zap.Stringer("phase", p), zap.Int("classes", len(c.classes)))
}

// ExtractErrorMessage condenses the frame chain embedded in err: the first
// frame, then one "    in <frame>" line per nested frame and a final
// "  with error: <message>" line. Errors without frames are returned as is.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var res []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, `File "<valasp|`); ok {
			frame, _, _ := strings.Cut(rest, "|")
			if len(res) == 0 {
				res = append(res, frame)
			} else {
				res = append(res, "    in "+strings.TrimSpace(frame))
			}
		} else if _, msg, ok := strings.Cut(line, "Error:"); ok {
			res = append(res, "  with error: "+strings.TrimSpace(msg))
		}
	}
	if len(res) == 0 {
		return err.Error()
	}
	return strings.Join(res, "\n")
}
