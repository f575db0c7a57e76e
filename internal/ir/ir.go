// Package ir defines the compiled form of a schema: one Fact per declared
// fact name, consumed by validator synthesis and the runtime. Values are
// built once by the compiler and never mutated afterwards.
package ir

import (
	"fmt"
	"regexp"

	"github.com/reoring/aspskema/domain"
	"github.com/reoring/aspskema/rules"
)

// Kind identifies the kind of a field.
type Kind int

const (
	KindInteger Kind = iota
	KindString
	KindAlpha
	KindAny
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindString:
		return "String"
	case KindAlpha:
		return "Alpha"
	case KindAny:
		return "Any"
	case KindReference:
		return "Reference"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Mode is how the raw engine term is unpacked into fields.
type Mode int

const (
	// ModeForward uses the raw term as the value of the only field.
	ModeForward Mode = iota
	// ModeImplicit expects name(f1,...,fn).
	ModeImplicit
	// ModeTuple expects (f1,...,fn).
	ModeTuple
)

func (m Mode) String() string {
	switch m {
	case ModeForward:
		return "FORWARD"
	case ModeImplicit:
		return "IMPLICIT"
	case ModeTuple:
		return "TUPLE"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Field is one declared field.
type Field struct {
	Name string
	Kind Kind
	Ref  domain.PredicateName // referenced fact for KindReference

	// Integer value bounds, or length bounds for String/Alpha. HasMin and
	// HasMax record whether the bound was declared.
	Min, Max       int64
	HasMin, HasMax bool

	IntEnum []int64
	StrEnum []string
	Pattern *regexp.Regexp
}

// AggregateKind is the kind of a running total.
type AggregateKind int

const (
	AggCount AggregateKind = iota
	AggSumPos
	AggSumNeg
)

func (k AggregateKind) String() string {
	switch k {
	case AggCount:
		return "count"
	case AggSumPos:
		return "sum"
	case AggSumNeg:
		return "sum"
	}
	return fmt.Sprintf("AggregateKind(%d)", int(k))
}

// Aggregate is a fact-wide sum or count over one field.
//
// Exceed is always set (defaulting to the domain extreme in the growth
// direction); Reach is the optional bound the final value must attain.
type Aggregate struct {
	ID       string // unique within the fact, e.g. "value.sum_pos"
	Field    string
	Index    int // field position
	Kind     AggregateKind
	Exceed   int64
	Reach    int64
	HasReach bool
}

// Comparison is a cross-field check between two fields of one instance.
type Comparison struct {
	Left, Right    string
	LIndex, RIndex int
	Op             rules.Op
}

func (c Comparison) String() string { return c.Left + " " + c.Op.String() + " " + c.Right }

// Hooks are user code bodies run around construction and grounding.
type Hooks struct {
	AfterInit       string
	BeforeGrounding string
	AfterGrounding  string
}

// Fact is the compiled form of one fact name.
type Fact struct {
	Name          domain.PredicateName
	Fields        []Field
	Comparisons   []Comparison
	Aggregates    []Aggregate
	IsConstrained bool
	Mode          Mode
	AutoBlacklist bool
	Hooks         Hooks
}

// Class returns the class-form name of the fact.
func (f *Fact) Class() domain.ClassName { return f.Name.ToClass() }

// Arity is the number of fields.
func (f *Fact) Arity() int { return len(f.Fields) }

// FieldIndex returns the position of the named field, or -1.
func (f *Fact) FieldIndex(name string) int {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// Config is the document-wide configuration block.
type Config struct {
	AuxProgram string   // engine source added as-is
	AuxSource  string   // hook-language source shared by hooks and wrapped callables
	Wrap       []string // names of AuxSource functions exposed as engine callables
	MaxArity   int
}

// Schema is the compiled document.
type Schema struct {
	Facts  []*Fact
	Config Config
}

// Fact returns the named fact, or nil.
func (s *Schema) Fact(name domain.PredicateName) *Fact {
	for _, f := range s.Facts {
		if f.Name == name {
			return f
		}
	}
	return nil
}
