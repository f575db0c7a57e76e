package aspskema

import "fmt"

// Phase identifies a step of the validation protocol.
type Phase uint8

const (
	PhaseSetup     Phase = iota // validators registered, accumulators reset
	PhaseGrounding              // per-fact construction through the engine
	PhaseCheck                  // aggregate bounds after grounding
	PhaseSolve
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseGrounding:
		return "grounding"
	case PhaseCheck:
		return "check"
	case PhaseSolve:
		return "solve"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Warnings carries non-fatal findings produced while compiling or running.
type Warnings struct{ ws []string }

func (d *Warnings) HasWarnings() bool { return d != nil && len(d.ws) > 0 }
func (d *Warnings) Warnings() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.ws...)
}

// Warnf records a formatted warning.
func (d *Warnings) Warnf(f string, a ...any) { d.ws = append(d.ws, fmt.Sprintf(f, a...)) }
