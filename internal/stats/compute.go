// Package stats provides the numeric helpers shared by signal operators and resampling.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Percentile returns the q-th percentile (0..100) of values using linear
// interpolation between order statistics. q <= 0 yields the minimum, q >= 100
// the maximum. Returns false for empty input or a NaN q. values is not
// modified.
func Percentile(values []float64, q float64) (float64, bool) {
	n := len(values)
	if n == 0 || math.IsNaN(q) {
		return 0, false
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return percentileSorted(sorted, q), true
}

// percentileSorted assumes sorted is non-empty and ascending.
func percentileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 100 {
		return sorted[n-1]
	}

	pos := float64(n-1) * q / 100
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}

	w := pos - float64(lower)
	return sorted[lower]*(1-w) + sorted[upper]*w
}

// Mean returns the arithmetic mean. Returns false for empty input.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// Min returns the smallest value. Returns false for empty input.
func Min(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m, true
}

// Max returns the largest value. Returns false for empty input.
func Max(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m, true
}

// Median is the 50th percentile.
func Median(values []float64) (float64, bool) {
	return Percentile(values, 50)
}

// Statistic names a reduction over a set of values.
type Statistic string

const (
	StatMean       Statistic = "mean"
	StatMin        Statistic = "min"
	StatMax        Statistic = "max"
	StatMedian     Statistic = "median"
	StatPercentile Statistic = "percentile"
)

// ParseStatistic parses a case-insensitive statistic name.
func ParseStatistic(s string) (Statistic, error) {
	st := Statistic(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatMean, StatMin, StatMax, StatMedian, StatPercentile:
		return st, nil
	default:
		return "", fmt.Errorf("unknown statistic %q", s)
	}
}

// Compute reduces values with st. q is only used by StatPercentile.
// Returns false for empty input.
func Compute(st Statistic, values []float64, q float64) (float64, bool) {
	switch st {
	case StatMin:
		return Min(values)
	case StatMax:
		return Max(values)
	case StatMedian:
		return Median(values)
	case StatPercentile:
		return Percentile(values, q)
	default:
		return Mean(values)
	}
}
