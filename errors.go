package aspskema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType  = "invalid_type"
	CodeUnknownKey   = "unknown_key"
	CodeDuplicateKey = "duplicate_key"
	CodeRequired     = "required"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodeTooShort     = "too_short"
	CodeTooLong      = "too_long"
	CodePattern      = "pattern"
	CodeInvalidEnum  = "invalid_enum"
	CodeInvalidName  = "invalid_name"
	CodeParseError   = "parse_error"
	CodeOverflow     = "overflow"
	// Schema cross-checks
	CodeUndefinedType   = "undefined_type"
	CodeUnresolvedField = "unresolved_field"
	CodeMinNotLessMax   = "min_not_less_than_max"
	CodeReserved        = "reserved"
	CodeArity           = "arity"
	// Per-instance checks
	CodeTag        = "tag"
	CodeComparison = "comparison"
	CodeHook       = "hook"
	// Post-grounding and engine-level checks
	CodeAggregateViolation = "aggregate_violation"
	CodeBlacklisted        = "blacklisted"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer into the schema document (for example: /point/x/min).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	// Params carries structured parameters (e.g., {"fact":"point", "field":"x", "bound":10, "value":11})
	// for i18n and observability.
	Params map[string]any
}

// AsIssue extracts the Issue carried by any of the typed errors of this package.
func AsIssue(err error) (Issue, bool) {
	var c interface{ issue() Issue }
	if errors.As(err, &c) {
		return c.issue(), true
	}
	return Issue{}, false
}

// SchemaError reports a malformed schema document. It is always raised
// before any fact is processed.
type SchemaError struct {
	Issue
}

// Error renders the path as a breadcrumb, e.g. "point: x: min: expected an integer".
func (e *SchemaError) Error() string {
	crumbs := Breadcrumb(e.Path)
	if crumbs == "" {
		return e.Message
	}
	return crumbs + ": " + e.Message
}

func (e *SchemaError) Unwrap() error { return e.Cause }

func (e *SchemaError) issue() Issue { return e.Issue }

// ConstructionKind distinguishes the two families of per-instance failures.
type ConstructionKind int

const (
	// TypeMismatch means the engine value has the wrong shape or kind.
	TypeMismatch ConstructionKind = iota
	// ConstraintViolation means a bound, enum, pattern or comparison failed.
	ConstraintViolation
)

func (k ConstructionKind) String() string {
	if k == TypeMismatch {
		return "type mismatch"
	}
	return "constraint violation"
}

// ConstructionError is raised while building one fact instance during grounding.
type ConstructionError struct {
	Kind  ConstructionKind
	Fact  string
	Field string // empty for whole-term failures
	Issue
}

func (e *ConstructionError) Error() string { return e.Message }

func (e *ConstructionError) Unwrap() error { return e.Cause }

func (e *ConstructionError) issue() Issue { return e.Issue }

// AggregateError is raised after grounding when a sum or count is out of bounds.
type AggregateError struct {
	Fact  string
	Field string
	Value int64 // final accumulator
	Bound int64
	Issue
}

func (e *AggregateError) Error() string { return e.Message }

func (e *AggregateError) issue() Issue { return e.Issue }

// BlacklistError reports a fact whose name/arity pair is rejected.
type BlacklistError struct {
	Fact  string
	Arity int
	Issue
}

func (e *BlacklistError) Error() string { return e.Message }

func (e *BlacklistError) issue() Issue { return e.Issue }

// FrameError labels an error with the frame it crossed, producing the nested
// text that engines embed in grounding failures.
type FrameError struct {
	Frame string
	Err   error
}

// WithFrame wraps err in a frame; nil stays nil.
func WithFrame(frame string, err error) error {
	if err == nil {
		return nil
	}
	return &FrameError{Frame: frame, Err: err}
}

func (e *FrameError) Error() string {
	b := &strings.Builder{}
	var err error = e
	for {
		fe, ok := err.(*FrameError)
		if !ok {
			break
		}
		fmt.Fprintf(b, "File \"<valasp|%s|>\"\n", fe.Frame)
		err = fe.Err
	}
	fmt.Fprintf(b, "Error: %v", err)
	return b.String()
}

func (e *FrameError) Unwrap() error { return e.Err }

// Frames splits a chain of nested FrameErrors into its frame labels,
// outermost first, and the innermost error.
func Frames(err error) ([]string, error) {
	var frames []string
	for {
		fe, ok := err.(*FrameError)
		if !ok {
			return frames, err
		}
		frames = append(frames, fe.Frame)
		err = fe.Err
	}
}

// WithFrames wraps err in the given frames, outermost first.
func WithFrames(frames []string, err error) error {
	for i := len(frames) - 1; i >= 0; i-- {
		err = WithFrame(frames[i], err)
	}
	return err
}
