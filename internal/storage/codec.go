package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// EncodeFeatures serializes a feature map as a JSON object.
// Non-finite numbers have no JSON form and are rejected.
func EncodeFeatures(f domain.Features) ([]byte, error) {
	for k, v := range f {
		if x, ok := domain.ToNumber(v); ok && math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: feature %q is not finite", ErrInvalidInput, k)
		}
		if x, ok := v.(float64); ok && math.IsNaN(x) {
			return nil, fmt.Errorf("%w: feature %q is not finite", ErrInvalidInput, k)
		}
	}
	if f == nil {
		f = domain.Features{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("%w: encode features: %v", ErrInvalidInput, err)
	}
	return data, nil
}

// DecodeFeatures parses a JSON object into features. Integral numbers decode
// as int64, other numbers as float64.
func DecodeFeatures(data []byte) (domain.Features, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}

	out := make(domain.Features, len(raw))
	for k, v := range raw {
		n, ok := v.(json.Number)
		if !ok {
			out[k] = v
			continue
		}
		if i, err := n.Int64(); err == nil {
			out[k] = i
			continue
		}
		x, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("decode feature %q: %w", k, err)
		}
		out[k] = x
	}
	return out, nil
}

// ValidatePoints rejects an empty series id and duplicate timestamps within points.
func ValidatePoints(seriesID string, points []domain.Point) error {
	if seriesID == "" {
		return fmt.Errorf("%w: series id is required", ErrInvalidInput)
	}
	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		if _, exists := seen[p.TimestampMs]; exists {
			return ErrDuplicateKey
		}
		seen[p.TimestampMs] = struct{}{}
	}
	return nil
}
