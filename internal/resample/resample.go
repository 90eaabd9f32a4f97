// Package resample buckets timestamped points onto a calendar grid and
// aggregates each bucket per column. It produces the evenly spaced points a
// timeframe consumes.
package resample

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/stats"
)

// Unit is a calendar unit.
type Unit string

const (
	UnitSecond Unit = "second"
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitMonth  Unit = "month"
	UnitYear   Unit = "year"
)

var unitMillis = map[Unit]int64{
	UnitSecond: int64(time.Second / time.Millisecond),
	UnitMinute: int64(time.Minute / time.Millisecond),
	UnitHour:   int64(time.Hour / time.Millisecond),
	UnitDay:    24 * int64(time.Hour/time.Millisecond),
}

// Scale is Step units per bucket.
type Scale struct {
	Unit Unit
	Step int
}

// ParseScale validates a unit name and step.
func ParseScale(unit string, step int) (Scale, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(unit)))
	if _, fixed := unitMillis[u]; !fixed && u != UnitMonth && u != UnitYear {
		return Scale{}, fmt.Errorf("%w: unit %q", ErrInvalidScale, unit)
	}
	if step <= 0 {
		return Scale{}, fmt.Errorf("%w: step must be > 0, got %d", ErrInvalidScale, step)
	}
	return Scale{Unit: u, Step: step}, nil
}

// String returns e.g. "5 minute".
func (s Scale) String() string {
	return fmt.Sprintf("%d %s", s.Step, s.Unit)
}

// Bucket returns the start of the bucket containing tsMs, in UTC epoch ms.
// Fixed units floor to multiples of the step since the epoch; months and
// years floor on the calendar index.
func (s Scale) Bucket(tsMs int64) int64 {
	if ms, ok := unitMillis[s.Unit]; ok {
		width := ms * int64(s.Step)
		return floorDiv(tsMs, width) * width
	}

	t := time.UnixMilli(tsMs).UTC()
	step := int64(s.Step)
	switch s.Unit {
	case UnitMonth:
		idx := int64(t.Year())*12 + int64(t.Month()-1)
		start := floorDiv(idx, step) * step
		year := floorDiv(start, 12)
		month := time.Month(start-year*12) + time.January
		return time.Date(int(year), month, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	default:
		year := floorDiv(int64(t.Year()), step) * step
		return time.Date(int(year), time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Aggregation reduces the values of one column in a bucket.
type Aggregation struct {
	Method     stats.Statistic
	Percentile float64
}

// ParseAggregation parses a method name. percentile is used only by the percentile method.
func ParseAggregation(method string, percentile float64) (Aggregation, error) {
	st, err := stats.ParseStatistic(method)
	if err != nil {
		return Aggregation{}, fmt.Errorf("%w: %v", ErrInvalidAggregation, err)
	}
	if st == stats.StatPercentile && !(percentile >= 0 && percentile <= 100) {
		return Aggregation{}, fmt.Errorf("%w: percentile must be within [0, 100], got %v", ErrInvalidAggregation, percentile)
	}
	return Aggregation{Method: st, Percentile: percentile}, nil
}

// Aggregate buckets points by scale and reduces each column with agg over
// its finite numeric values. Columns without any are omitted, and buckets
// without a raw value are dropped. Output is ordered by bucket start.
func Aggregate(points []domain.Point, scale Scale, agg Aggregation) []domain.Point {
	type bucket struct {
		ts      int64
		columns map[string][]float64
	}

	buckets := make(map[int64]*bucket)
	for _, p := range points {
		key := scale.Bucket(p.TimestampMs)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{ts: key, columns: make(map[string][]float64)}
			buckets[key] = b
		}
		for col, v := range p.Features {
			x, ok := domain.ToNumber(v)
			if !ok || math.IsInf(x, 0) {
				continue
			}
			b.columns[col] = append(b.columns[col], x)
		}
	}

	out := make([]domain.Point, 0, len(buckets))
	for _, b := range buckets {
		feats := make(domain.Features, len(b.columns))
		for col, vals := range b.columns {
			if v, ok := stats.Compute(agg.Method, vals, agg.Percentile); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
				feats[col] = v
			}
		}
		if _, ok := feats[domain.RawValueKey]; !ok {
			continue
		}
		out = append(out, domain.Point{TimestampMs: b.ts, Features: feats})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TimestampMs < out[j].TimestampMs
	})
	return out
}
