package signal

import (
	"errors"
	"testing"
)

func TestRollingPercentile_WaitsForMinHistory(t *testing.T) {
	op := mustNew(t, TypeRollingPercentile, Params{
		"window_size": 10,
		"percentile":  50,
		"min_history": 3,
		"comparison":  "gt",
	})

	got := feed(op, values(1, 2, 3, 10))
	if got != "0001" {
		t.Errorf("expected 0001, got %s", got)
	}

	thr := stateOf(t, op, "last_threshold")
	if !thr.Valid || thr.Value != 2 {
		t.Errorf("expected threshold 2, got %+v", thr)
	}
}

func TestRollingPercentile_IncludeCurrent(t *testing.T) {
	op := mustNew(t, TypeRollingPercentile, Params{
		"window_size":     10,
		"percentile":      50,
		"min_history":     3,
		"include_current": true,
		"comparison":      "lt",
	})

	// threshold over [5 5 5 1] is 5
	if got := feed(op, values(5, 5, 5, 1)); got != "0001" {
		t.Errorf("expected 0001, got %s", got)
	}
}

func TestRollingPercentile_NonNumericLeavesHistory(t *testing.T) {
	op, err := NewRollingPercentile(RollingPercentileConfig{
		ValueKey:   "value",
		WindowSize: 5,
		Percentile: 50,
		MinHistory: 1,
		Comparison: CompareGT,
	})
	if err != nil {
		t.Fatalf("NewRollingPercentile failed: %v", err)
	}

	got := feed(op, values(1, 2, "x", true, nil))
	if got != "01000" {
		t.Errorf("expected 01000, got %s", got)
	}

	h := op.History()
	if len(h) != 2 || h[0] != 1 || h[1] != 2 {
		t.Errorf("expected history [1 2], got %v", h)
	}
	if _, ok := op.LastThreshold(); ok {
		t.Error("expected no threshold after non-numeric step")
	}
}

func TestRollingPercentile_WindowEviction(t *testing.T) {
	op, err := NewRollingPercentileWithThreshold(RollingPercentileConfig{
		ValueKey:   "value",
		WindowSize: 2,
		Percentile: 50,
		MinHistory: 1,
		Comparison: CompareGT,
	})
	if err != nil {
		t.Fatalf("NewRollingPercentileWithThreshold failed: %v", err)
	}
	if op.Type() != TypeRollingPercentileWithThreshold {
		t.Errorf("expected type %s, got %s", TypeRollingPercentileWithThreshold, op.Type())
	}

	feed(op, values(1, 2, 3))
	h := op.History()
	if len(h) != 2 || h[0] != 2 || h[1] != 3 {
		t.Errorf("expected history [2 3], got %v", h)
	}
}

func TestRollingPercentile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{"zero window", Params{"window_size": 0}, ErrInvalidWindow},
		{"percentile above range", Params{"percentile": 101}, ErrInvalidPercentile},
		{"percentile below range", Params{"percentile": -1}, ErrInvalidPercentile},
		{"bad comparison", Params{"comparison": "eq"}, ErrInvalidComparison},
		{"bad number", Params{"window_size": "ten"}, ErrInvalidParam},
	}

	for _, tt := range tests {
		_, err := New(TypeRollingPercentile, tt.params)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}
