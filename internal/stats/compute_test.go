package stats

import (
	"math"
	"testing"
)

func TestPercentile_Bounds(t *testing.T) {
	inputs := [][]float64{
		{5},
		{3, 1, 2},
		{-4, 10, 0.5, 7, 7},
	}

	for _, values := range inputs {
		minV, _ := Min(values)
		maxV, _ := Max(values)

		p0, ok := Percentile(values, 0)
		if !ok || p0 != minV {
			t.Errorf("percentile(%v, 0): expected %v, got %v", values, minV, p0)
		}
		p100, ok := Percentile(values, 100)
		if !ok || p100 != maxV {
			t.Errorf("percentile(%v, 100): expected %v, got %v", values, maxV, p100)
		}
		if p, _ := Percentile(values, -5); p != minV {
			t.Errorf("percentile(%v, -5): expected %v, got %v", values, minV, p)
		}
		if p, _ := Percentile(values, 150); p != maxV {
			t.Errorf("percentile(%v, 150): expected %v, got %v", values, maxV, p)
		}
	}
}

func TestPercentile_Interpolates(t *testing.T) {
	tests := []struct {
		values []float64
		q      float64
		want   float64
	}{
		{[]float64{1, 2, 3, 4}, 50, 2.5},
		{[]float64{4, 3, 2, 1}, 50, 2.5},
		{[]float64{1, 2, 3}, 50, 2},
		{[]float64{0, 10}, 25, 2.5},
		{[]float64{1, 2, 3, 4, 5}, 90, 4.6},
	}

	for _, tt := range tests {
		got, ok := Percentile(tt.values, tt.q)
		if !ok || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("percentile(%v, %v): expected %v, got %v", tt.values, tt.q, tt.want, got)
		}
	}
}

func TestPercentile_EmptyAndNoMutation(t *testing.T) {
	if _, ok := Percentile(nil, 50); ok {
		t.Error("expected no percentile for empty input")
	}

	values := []float64{3, 1, 2}
	Percentile(values, 50)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("expected input untouched, got %v", values)
	}
}

func TestCompute(t *testing.T) {
	values := []float64{2, 8, 4, 6}

	tests := []struct {
		st   Statistic
		q    float64
		want float64
	}{
		{StatMean, 0, 5},
		{StatMin, 0, 2},
		{StatMax, 0, 8},
		{StatMedian, 0, 5},
		{StatPercentile, 100, 8},
		{StatPercentile, 0, 2},
	}

	for _, tt := range tests {
		got, ok := Compute(tt.st, values, tt.q)
		if !ok || got != tt.want {
			t.Errorf("Compute(%s): expected %v, got %v", tt.st, tt.want, got)
		}
	}

	if _, ok := Compute(StatMean, nil, 0); ok {
		t.Error("expected no value for empty input")
	}
}

func TestParseStatistic(t *testing.T) {
	st, err := ParseStatistic(" Median ")
	if err != nil || st != StatMedian {
		t.Errorf("expected median, got %q (%v)", st, err)
	}
	if _, err := ParseStatistic("mode"); err == nil {
		t.Error("expected error for unknown statistic")
	}
}

func TestEMA(t *testing.T) {
	e := NewEMA(3) // alpha 0.5

	if _, ok := e.Value(); ok {
		t.Error("expected unseeded EMA")
	}
	if v := e.Update(10); v != 10 {
		t.Errorf("expected seed 10, got %v", v)
	}
	if v := e.Update(20); v != 15 {
		t.Errorf("expected 15, got %v", v)
	}
	if v := e.Update(15); v != 15 {
		t.Errorf("expected 15, got %v", v)
	}

	e.Reset()
	if _, ok := e.Value(); ok {
		t.Error("expected reset EMA to be unseeded")
	}
	if v := e.Update(1); v != 1 {
		t.Errorf("expected reseed 1, got %v", v)
	}
}

func TestBounded(t *testing.T) {
	b := NewBounded[int](3)
	for i := 1; i <= 5; i++ {
		b.Push(i)
	}

	items := b.Items()
	if len(items) != 3 || items[0] != 3 || items[2] != 5 {
		t.Errorf("expected [3 4 5], got %v", items)
	}

	items[0] = 99
	if b.View()[0] != 3 {
		t.Error("expected Items to return a copy")
	}

	b.Reset()
	if b.Len() != 0 {
		t.Errorf("expected empty after reset, got %d", b.Len())
	}

	unbounded := NewBounded[int](0)
	for i := 0; i < 2000; i++ {
		unbounded.Push(i)
	}
	if unbounded.Len() != 2000 {
		t.Errorf("expected unbounded FIFO to keep 2000 items, got %d", unbounded.Len())
	}
}

func TestBounded_EvictionAcrossCompaction(t *testing.T) {
	b := NewBounded[int](4)
	for i := 1; i <= 23; i++ {
		b.Push(i)

		want := i - 3
		if want < 1 {
			want = 1
		}
		view := b.View()
		if len(view) != i-want+1 || view[0] != want || view[len(view)-1] != i {
			t.Fatalf("after push %d: expected %d..%d, got %v", i, want, i, view)
		}
		if len(b.items) > 8 {
			t.Fatalf("after push %d: backing slice grew to %d", i, len(b.items))
		}
	}

	b.Reset()
	b.Push(7)
	if items := b.Items(); len(items) != 1 || items[0] != 7 {
		t.Errorf("expected [7] after reset, got %v", items)
	}
}

func TestPercentile_NaNQuantile(t *testing.T) {
	if _, ok := Percentile([]float64{1, 2, 3}, math.NaN()); ok {
		t.Error("expected NaN percentile to be rejected")
	}
	if _, ok := Compute(StatPercentile, []float64{1, 2, 3}, math.NaN()); ok {
		t.Error("expected Compute to reject NaN percentile")
	}
}
