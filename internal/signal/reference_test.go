package signal

import (
	"errors"
	"testing"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// pairs builds steps of value plus one flag per key.
func pairs(keys []string, rows ...[]any) []domain.Features {
	out := make([]domain.Features, len(rows))
	for i, row := range rows {
		f := domain.Features{domain.RawValueKey: row[0]}
		for j, k := range keys {
			f[k] = row[j+1] == 1
		}
		out[i] = f
	}
	return out
}

func TestValueVsLastTrueReference(t *testing.T) {
	op := mustNew(t, TypeValueVsLastTrueReference, Params{"reference_signal_key": "ref"})

	steps := pairs([]string{"ref"},
		[]any{5, 0},
		[]any{3, 1},
		[]any{2, 0},
		[]any{4, 0},
		[]any{"x", 0},
		[]any{1, 1},
		[]any{0.5, 0},
	)
	if got := feed(op, steps); got != "0010001" {
		t.Errorf("expected 0010001, got %s", got)
	}
	if v := stateOf(t, op, "last_reference_value"); !v.Valid || v.Value != 1 {
		t.Errorf("expected reference 1, got %+v", v)
	}
}

func TestValueVsLastTargetForBase(t *testing.T) {
	op := mustNew(t, TypeValueVsLastTargetForBase, Params{
		"base_signal_key":   "base",
		"target_signal_key": "target",
	})

	steps := pairs([]string{"base", "target"},
		[]any{5, 0, 1},
		[]any{4, 1, 0},
		[]any{6, 1, 0},
		[]any{3, 1, 1},
		[]any{2, 1, 0},
		[]any{1, 0, 0},
	)
	if got := feed(op, steps); got != "010010" {
		t.Errorf("expected 010010, got %s", got)
	}
}

func TestValueVsPrevious(t *testing.T) {
	op := mustNew(t, TypeValueVsPrevious, Params{})

	// a missing value clears the previous one
	if got := feed(op, values(1, 2, 2, 3, "x", 5, 4)); got != "0101000" {
		t.Errorf("expected 0101000, got %s", got)
	}

	lt := mustNew(t, TypeValueVsPrevious, Params{"comparison": "lt"})
	if got := feed(lt, values(3, 2, 2, 1)); got != "0101" {
		t.Errorf("expected 0101, got %s", got)
	}
}

func TestValueVsLastSignalRunStatistic(t *testing.T) {
	op := mustNew(t, TypeValueVsLastSignalRunStatistic, Params{
		"signal_key": "s",
		"statistic":  "mean",
	})

	steps := pairs([]string{"s"},
		[]any{1, 1},
		[]any{3, 1},
		[]any{0, 0},
		[]any{5, 0},
		[]any{2, 0},
		[]any{10, 1},
		[]any{1, 0},
	)
	if got := feed(op, steps); got != "0001010" {
		t.Errorf("expected 0001010, got %s", got)
	}
	if v := stateOf(t, op, "last_statistic"); !v.Valid || v.Value != 10 {
		t.Errorf("expected last_statistic 10, got %+v", v)
	}
}

func TestValueVsLastSignalRunStatistic_Median(t *testing.T) {
	op := mustNew(t, TypeValueVsLastSignalRunStatistic, Params{
		"signal_key": "s",
		"statistic":  "median",
		"percentile": 150,
	})

	feed(op, pairs([]string{"s"},
		[]any{1, 1},
		[]any{2, 1},
		[]any{3, 1},
		[]any{4, 1},
		[]any{0, 0},
	))
	if v := stateOf(t, op, "last_statistic"); !v.Valid || v.Value != 2.5 {
		t.Errorf("expected median 2.5, got %+v", v)
	}
}

func TestValueVsLastSignalRunStatistic_Validation(t *testing.T) {
	if _, err := New(TypeValueVsLastSignalRunStatistic, Params{"statistic": "mode"}); !errors.Is(err, ErrInvalidStatistic) {
		t.Errorf("expected ErrInvalidStatistic, got %v", err)
	}
	_, err := New(TypeValueVsLastSignalRunStatistic, Params{"statistic": "percentile", "percentile": 150})
	if !errors.Is(err, ErrInvalidPercentile) {
		t.Errorf("expected ErrInvalidPercentile, got %v", err)
	}
}

func TestReferenceOperators_InvalidComparison(t *testing.T) {
	for _, typ := range []string{TypeValueVsLastTrueReference, TypeValueVsLastTargetForBase, TypeValueVsPrevious} {
		if _, err := New(typ, Params{"comparison": ">="}); !errors.Is(err, ErrInvalidComparison) {
			t.Errorf("%s: expected ErrInvalidComparison, got %v", typ, err)
		}
	}
}
