package domain

// Point is one timestamped sample of a timeframe. Immutable once appended.
type Point struct {
	TimestampMs int64    `json:"ts" yaml:"ts"`
	Features    Features `json:"values" yaml:"values"`
}

// Clone returns a copy that shares no map with p.
func (p Point) Clone() Point {
	return Point{TimestampMs: p.TimestampMs, Features: p.Features.Clone()}
}

// Value returns the raw value of the point.
func (p Point) Value() (float64, bool) {
	return p.Features.Number(RawValueKey)
}

// Timestamps extracts the timestamp column of points.
func Timestamps(points []Point) []int64 {
	out := make([]int64, len(points))
	for i, p := range points {
		out[i] = p.TimestampMs
	}
	return out
}
