package signal

import (
	"fmt"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// Intersection emits true iff every listed key is truthy.
type Intersection struct {
	keys []string
}

// NewIntersection requires at least two distinct keys.
func NewIntersection(keys []string) (*Intersection, error) {
	if len(keys) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientKeys, len(keys))
	}
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("%w: %q repeated", ErrDuplicateKeys, k)
		}
		seen[k] = struct{}{}
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return &Intersection{keys: out}, nil
}

var _ Operator = (*Intersection)(nil)

// Type returns the operator type name.
func (o *Intersection) Type() string { return TypeIntersection }

// Update checks every key.
func (o *Intersection) Update(f domain.Features) bool {
	for _, k := range o.keys {
		if !f.Truthy(k) {
			return false
		}
	}
	return true
}

// Reset is a no-op; the operator is stateless.
func (o *Intersection) Reset() {}

// ExternalFlag emits true when a feature equals TrueValue. Equality is by
// value, not truthiness.
type ExternalFlag struct {
	key       string
	trueValue any
}

// NewExternalFlag creates the operator. key must name a feature.
func NewExternalFlag(key string, trueValue any) (*ExternalFlag, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: signal_key", ErrMissingKey)
	}
	return &ExternalFlag{key: key, trueValue: trueValue}, nil
}

var _ Operator = (*ExternalFlag)(nil)

// Type returns the operator type name.
func (o *ExternalFlag) Type() string { return TypeExternalFlag }

// Update compares the feature with the configured value.
func (o *ExternalFlag) Update(f domain.Features) bool {
	return domain.Equal(f[o.key], o.trueValue)
}

// Reset is a no-op; the operator is stateless.
func (o *ExternalFlag) Reset() {}
