// Package signal implements the stateful streaming operators evaluated by the signal graph.
package signal

import (
	"fmt"
	"strings"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/stats"
)

// Operator consumes one feature mapping per step and emits one boolean.
// Update must be called exactly once per step, in order.
type Operator interface {
	// Type returns the operator type name.
	Type() string

	// Update folds one step into the operator state and returns its output.
	// Missing or non-numeric inputs degrade to false without mutating history.
	Update(f domain.Features) bool

	// Reset returns the operator to its freshly constructed state.
	Reset()
}

// StateValue is one named internal quantity of an operator.
// Valid is false when the quantity is currently undefined.
type StateValue struct {
	Name  string
	Value float64
	Valid bool
}

// StateReporter is implemented by operators exposing internal state for export.
type StateReporter interface {
	State() []StateValue
}

func known(name string, v float64) StateValue {
	return StateValue{Name: name, Value: v, Valid: true}
}

func maybe(name string, v float64, ok bool) StateValue {
	if !ok {
		return StateValue{Name: name}
	}
	return known(name, v)
}

// Comparison selects the direction of a threshold test.
type Comparison string

const (
	CompareGT Comparison = "gt"
	CompareLT Comparison = "lt"
)

// ParseComparison parses "gt" or "lt", case-insensitive.
func ParseComparison(s string) (Comparison, error) {
	c := Comparison(strings.ToLower(strings.TrimSpace(s)))
	if c != CompareGT && c != CompareLT {
		return "", fmt.Errorf("%w: got %q", ErrInvalidComparison, s)
	}
	return c, nil
}

// Holds reports value > threshold for gt and value < threshold for lt.
func (c Comparison) Holds(value, threshold float64) bool {
	if c == CompareGT {
		return value > threshold
	}
	return value < threshold
}

func validatePercentile(q float64) error {
	if !(q >= 0 && q <= 100) {
		return fmt.Errorf("%w: got %v", ErrInvalidPercentile, q)
	}
	return nil
}

// defaultTraceLimit bounds trace records when no limit is configured.
const defaultTraceLimit = 1000

func historyPercentile(h *stats.Bounded[float64], q float64) (float64, bool) {
	return stats.Percentile(h.View(), q)
}
