// Package rules holds the comparison operators used by cross-field checks
// and by engine constraint bodies.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Op defines simple comparison operators.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

var opText = map[Op]string{Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">="}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseOp maps "==", "!=", "<", "<=", ">", ">=" to an Op. "=" is accepted as "==".
func ParseOp(s string) (Op, error) {
	if s == "=" {
		return Eq, nil
	}
	for op, txt := range opText {
		if txt == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown comparison operator %q", s)
}

// Holds reports whether a three-way comparison result satisfies op.
func (o Op) Holds(cmp int) bool {
	switch o {
	case Eq:
		return cmp == 0
	case Ne:
		return cmp != 0
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	case Gt:
		return cmp > 0
	case Ge:
		return cmp >= 0
	default:
		return false
	}
}

// Comparison is a parsed "left op right" expression over two names.
type Comparison struct {
	Left  string
	Op    Op
	Right string
}

func (c Comparison) String() string { return c.Left + " " + c.Op.String() + " " + c.Right }

var comparisonRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*(==|!=|<=|>=|<|>|=)\s*([A-Za-z_][A-Za-z0-9_]*)\s*$`)

// ParseComparison parses "first < second" with optional spacing.
func ParseComparison(s string) (Comparison, error) {
	m := comparisonRe.FindStringSubmatch(s)
	if m == nil {
		return Comparison{}, fmt.Errorf("cannot parse comparison %q", strings.TrimSpace(s))
	}
	op, err := ParseOp(m[2])
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{Left: m[1], Op: op, Right: m[3]}, nil
}
