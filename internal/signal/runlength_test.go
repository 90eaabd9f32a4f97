package signal

import (
	"errors"
	"testing"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

func TestRunLengthReached(t *testing.T) {
	tests := []struct {
		name   string
		ext    int
		inputs []int
		want   string
	}{
		{"no extension", 0, []int{1, 1, 1, 0, 0, 0}, "001000"},
		{"extension of two", 2, []int{1, 1, 1, 0, 0, 0}, "001110"},
		{"latched while run continues", 0, []int{1, 1, 1, 1, 1}, "00111"},
		{"broken before reaching", 0, []int{1, 1, 0, 1, 1, 1}, "000001"},
		{"new run cancels tail", 3, []int{1, 1, 1, 0, 1, 0}, "001100"},
		{"short run leaves no tail", 2, []int{1, 1, 0, 0}, "0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := mustNew(t, TypeRunLengthReached, Params{
				"signal_key":         "s",
				"min_run_length":     3,
				"post_run_extension": tt.ext,
			})
			if got := feed(op, flags("s", tt.inputs...)); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRunLengthReached_TargetValueText(t *testing.T) {
	op := mustNew(t, TypeRunLengthReached, Params{
		"signal_key":     "regime",
		"target_value":   "up",
		"min_run_length": 2,
	})

	var steps []domain.Features
	for _, v := range []string{"up", "up", "down", "up"} {
		steps = append(steps, domain.Features{"regime": v})
	}
	if got := feed(op, steps); got != "0100" {
		t.Errorf("expected 0100, got %s", got)
	}
}

func TestRunInterrupted(t *testing.T) {
	tests := []struct {
		name   string
		ext    int
		inputs []int
		want   string
	}{
		{"fires on break", 0, []int{1, 1, 1, 0, 0}, "00010"},
		{"extension after break", 2, []int{1, 1, 1, 0, 0, 0, 0}, "0001110"},
		{"short run", 0, []int{1, 1, 0}, "000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := mustNew(t, TypeRunInterrupted, Params{
				"signal_key":         "s",
				"min_run_length":     3,
				"post_run_extension": tt.ext,
			})
			if got := feed(op, flags("s", tt.inputs...)); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRunLengthReachedHistoryPercentile(t *testing.T) {
	op, err := NewRunLengthReachedHistoryPercentile(RunHistoryConfig{
		SignalKey:      "s",
		TargetValue:    int64(1),
		HistoryWindow:  10,
		Percentile:     50,
		MinHistoryRuns: 1,
		RunTraceLimit:  10,
	})
	if err != nil {
		t.Fatalf("NewRunLengthReachedHistoryPercentile failed: %v", err)
	}

	// first run has no history, second run uses threshold 2
	got := feed(op, flags("s", 1, 1, 0, 1, 1, 1, 0))
	if got != "0000110" {
		t.Errorf("expected 0000110, got %s", got)
	}

	trace := op.RunTrace()
	if len(trace) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(trace))
	}
	if trace[0].RunLength != 2 || trace[0].HasThreshold || trace[0].Activated {
		t.Errorf("unexpected first run: %+v", trace[0])
	}
	if trace[1].RunLength != 3 || !trace[1].HasThreshold || trace[1].Threshold != 2 || !trace[1].Activated {
		t.Errorf("unexpected second run: %+v", trace[1])
	}

	if v := stateOf(t, op, "last_threshold"); !v.Valid || v.Value != 2 {
		t.Errorf("expected last_threshold 2, got %+v", v)
	}
	if v := stateOf(t, op, "current_threshold"); v.Valid {
		t.Errorf("expected no current_threshold between runs, got %+v", v)
	}
}

func TestRunLengthReachedHistoryPercentile_Extension(t *testing.T) {
	op := mustNew(t, TypeRunLengthReachedHistoryPercentile, Params{
		"signal_key":         "s",
		"history_window":     10,
		"percentile":         0,
		"post_run_extension": 1,
	})

	// threshold is the shortest previous run (1)
	if got := feed(op, flags("s", 1, 0, 1, 1, 0, 0)); got != "001110" {
		t.Errorf("expected 001110, got %s", got)
	}
}

func TestRunLengthReachedHistoryPercentile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{"zero window", Params{"history_window": 0}, ErrInvalidHistory},
		{"zero min runs", Params{"min_history_runs": 0}, ErrInvalidHistory},
		{"min runs above window", Params{"min_history_runs": 200}, ErrInvalidHistory},
		{"percentile", Params{"percentile": 120}, ErrInvalidPercentile},
	}

	for _, tt := range tests {
		_, err := New(TypeRunLengthReachedHistoryPercentile, tt.params)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestRunLengthVsHistoryPercentile(t *testing.T) {
	op := mustNew(t, TypeRunLengthVsHistoryPercentile, Params{
		"signal_key":       "s",
		"history_window":   10,
		"percentile":       50,
		"min_history_runs": 1,
	})

	// strict: run of 2 does not exceed threshold 2, run of 3 does
	if got := feed(op, flags("s", 1, 1, 0, 1, 1, 1, 0)); got != "0000010" {
		t.Errorf("expected 0000010, got %s", got)
	}

	if v := stateOf(t, op, "current_run"); !v.Valid || v.Value != 0 {
		t.Errorf("expected current_run 0, got %+v", v)
	}
}

func TestRunLengthVsHistoryPercentile_Validation(t *testing.T) {
	if _, err := New(TypeRunLengthVsHistoryPercentile, Params{"history_window": -1}); !errors.Is(err, ErrInvalidHistory) {
		t.Errorf("expected ErrInvalidHistory, got %v", err)
	}
	if _, err := New(TypeRunLengthVsHistoryPercentile, Params{"percentile": 101}); !errors.Is(err, ErrInvalidPercentile) {
		t.Errorf("expected ErrInvalidPercentile, got %v", err)
	}
}
