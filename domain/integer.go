package domain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Bounds of the engine integer domain.
const (
	MinInt int64 = -1 << 31
	MaxInt int64 = 1<<31 - 1
)

var (
	// ErrNotANumber is returned for text that is not an integer literal.
	ErrNotANumber = errors.New("not a number")
	// ErrOverflow is returned for integers outside [MinInt, MaxInt].
	ErrOverflow = errors.New("integer overflow")
)

// IntegerError wraps ErrNotANumber or ErrOverflow with the offending text.
type IntegerError struct {
	Text string
	Err  error
}

func (e *IntegerError) Error() string { return fmt.Sprintf("%q: %v", e.Text, e.Err) }

func (e *IntegerError) Unwrap() error { return e.Err }

// InRange reports whether v fits the engine integer domain.
func InRange(v int64) bool { return MinInt <= v && v <= MaxInt }

// ParseInt parses a decimal integer of the engine domain.
func ParseInt(text string) (int64, error) {
	s := strings.TrimSpace(text)
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return 0, &IntegerError{Text: text, Err: ErrNotANumber}
	}
	if !n.IsInt64() || !InRange(n.Int64()) {
		return 0, &IntegerError{Text: text, Err: ErrOverflow}
	}
	return n.Int64(), nil
}
