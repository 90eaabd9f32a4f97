package signal

import (
	"errors"
	"testing"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// markers builds steps with two flags.
func markers(a, b string, rows ...[2]int) []domain.Features {
	out := make([]domain.Features, len(rows))
	for i, r := range rows {
		out[i] = domain.Features{a: r[0] == 1, b: r[1] == 1}
	}
	return out
}

func newInterval(t *testing.T, params Params) *IntervalBetweenMarkers {
	t.Helper()
	params["start_signal_key"] = "s"
	params["end_signal_key"] = "e"
	op := mustNew(t, TypeIntervalBetweenMarkers, params)
	iv, ok := op.(*IntervalBetweenMarkers)
	if !ok {
		t.Fatalf("expected *IntervalBetweenMarkers, got %T", op)
	}
	return iv
}

func TestIntervalBetweenMarkers_EndSignal(t *testing.T) {
	op := newInterval(t, Params{})

	got := feed(op, markers("s", "e", [2]int{0, 0}, [2]int{1, 0}, [2]int{0, 0}, [2]int{0, 1}, [2]int{0, 0}))
	if got != "01110" {
		t.Errorf("expected 01110, got %s", got)
	}

	ivs := op.Intervals()
	if len(ivs) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(ivs))
	}
	want := Interval{StartIndex: 1, EndIndex: 3, Length: 3, ClosedBy: ClosedByEndSignal}
	if ivs[0] != want {
		t.Errorf("expected %+v, got %+v", want, ivs[0])
	}
	if v := stateOf(t, op, "last_interval_length"); !v.Valid || v.Value != 3 {
		t.Errorf("expected last_interval_length 3, got %+v", v)
	}
}

func TestIntervalBetweenMarkers_MaxLength(t *testing.T) {
	op := newInterval(t, Params{"max_length": 2})

	got := feed(op, markers("s", "e", [2]int{1, 0}, [2]int{0, 0}, [2]int{0, 0}))
	if got != "110" {
		t.Errorf("expected 110, got %s", got)
	}
	if op.LastClosedBy() != ClosedByMaxLength {
		t.Errorf("expected max_length close, got %q", op.LastClosedBy())
	}
}

func TestIntervalBetweenMarkers_SameStepStartAndEnd(t *testing.T) {
	op := newInterval(t, Params{})

	got := feed(op, markers("s", "e", [2]int{1, 1}, [2]int{0, 0}))
	if got != "10" {
		t.Errorf("expected 10, got %s", got)
	}

	ivs := op.Intervals()
	if len(ivs) != 1 || ivs[0].Length != 1 || ivs[0].StartIndex != 0 || ivs[0].EndIndex != 0 {
		t.Errorf("expected one single-step interval, got %+v", ivs)
	}
}

func TestIntervalBetweenMarkers_StartIgnoredWhileActive(t *testing.T) {
	op := newInterval(t, Params{})

	got := feed(op, markers("s", "e", [2]int{1, 0}, [2]int{1, 0}, [2]int{0, 1}, [2]int{0, 0}))
	if got != "1110" {
		t.Errorf("expected 1110, got %s", got)
	}
	if ivs := op.Intervals(); len(ivs) != 1 || ivs[0].Length != 3 {
		t.Errorf("expected one interval of length 3, got %+v", ivs)
	}
}

func TestIntervalBetweenMarkers_Validation(t *testing.T) {
	if _, err := New(TypeIntervalBetweenMarkers, Params{"max_length": 0}); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := New(TypeIntervalBetweenMarkers, Params{"max_length": ""}); err != nil {
		t.Errorf("expected blank max_length to be accepted, got %v", err)
	}
}

func newNthTarget(t *testing.T, window, index int) *NthTargetWithinWindowAfterTrigger {
	t.Helper()
	op := mustNew(t, TypeNthTargetWithinWindowAfterTrigger, Params{
		"trigger_signal_key": "a",
		"target_signal_key":  "b",
		"window_length":      window,
		"target_index":       index,
	})
	nt, ok := op.(*NthTargetWithinWindowAfterTrigger)
	if !ok {
		t.Fatalf("expected *NthTargetWithinWindowAfterTrigger, got %T", op)
	}
	return nt
}

func TestNthTargetWithinWindowAfterTrigger(t *testing.T) {
	op := newNthTarget(t, 3, 2)

	got := feed(op, markers("a", "b",
		[2]int{1, 0},
		[2]int{0, 1},
		[2]int{0, 1},
		[2]int{1, 0},
		[2]int{0, 0},
		[2]int{0, 0},
		[2]int{0, 1},
	))
	if got != "0010000" {
		t.Errorf("expected 0010000, got %s", got)
	}

	if ok, finished := op.LastSearchSuccess(); !finished || ok {
		t.Errorf("expected last search to have failed, got (%v, %v)", ok, finished)
	}
	if op.OpenWindows() != 0 {
		t.Errorf("expected no open windows, got %d", op.OpenWindows())
	}
}

func TestNthTargetWithinWindowAfterTrigger_OverlappingWindows(t *testing.T) {
	op := newNthTarget(t, 5, 1)

	got := feed(op, markers("a", "b", [2]int{1, 0}, [2]int{1, 0}, [2]int{0, 1}))
	if got != "001" {
		t.Errorf("expected 001, got %s", got)
	}
	if op.OpenWindows() != 0 {
		t.Errorf("expected both windows closed, got %d open", op.OpenWindows())
	}
	if ok, finished := op.LastSearchSuccess(); !finished || !ok {
		t.Errorf("expected last search to succeed, got (%v, %v)", ok, finished)
	}
}

func TestNthTargetWithinWindowAfterTrigger_TriggerStepNotCounted(t *testing.T) {
	op := newNthTarget(t, 5, 1)

	if got := feed(op, markers("a", "b", [2]int{1, 1}, [2]int{0, 1})); got != "01" {
		t.Errorf("expected 01, got %s", got)
	}
}

func TestNthTargetWithinWindowAfterTrigger_Validation(t *testing.T) {
	if _, err := New(TypeNthTargetWithinWindowAfterTrigger, Params{"window_length": 0}); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := New(TypeNthTargetWithinWindowAfterTrigger, Params{"target_index": 0}); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam, got %v", err)
	}
}
