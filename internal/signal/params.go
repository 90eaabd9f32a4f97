package signal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// Params holds the loosely typed parameters of a node. Typed accessors
// return the default for nil or blank values and an ErrInvalidParam for
// values of the wrong shape.
type Params map[string]any

func (p Params) lookup(name string) (any, bool) {
	v, ok := p[name]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func invalidParam(name string, v any) error {
	return fmt.Errorf("%w: %s=%v", ErrInvalidParam, name, v)
}

// Float reads a finite numeric parameter. Numeric strings are accepted.
func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	var f float64
	if s, isStr := v.(string); isStr {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, invalidParam(name, v)
		}
		f = parsed
	} else if f, ok = domain.ToNumber(v); !ok {
		return 0, invalidParam(name, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalidParam(name, v)
	}
	return f, nil
}

// Int reads a whole-number parameter.
func (p Params) Int(name string, def int) (int, error) {
	n, set, err := p.OptionalInt(name)
	if err != nil {
		return 0, err
	}
	if !set {
		return def, nil
	}
	return n, nil
}

// OptionalInt reads a whole-number parameter, reporting whether it was set.
// Fractional values and values outside the int range are rejected.
func (p Params) OptionalInt(name string) (int, bool, error) {
	v, ok := p.lookup(name)
	if !ok {
		return 0, false, nil
	}
	f, err := p.Float(name, 0)
	if err != nil {
		return 0, false, err
	}
	if f != math.Trunc(f) || f < math.MinInt || f >= -math.MinInt {
		return 0, false, invalidParam(name, v)
	}
	return int(f), true, nil
}

// Bool reads a boolean parameter. Accepts true/false, 1/0, yes/no, y/n and numbers.
func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "y":
			return true, nil
		case "false", "0", "no", "n":
			return false, nil
		}
		return false, invalidParam(name, v)
	}
	if f, ok := domain.ToNumber(v); ok {
		return f != 0, nil
	}
	return false, invalidParam(name, v)
}

// String reads a text parameter.
func (p Params) String(name, def string) string {
	v, ok := p.lookup(name)
	if !ok {
		return def
	}
	if s, isStr := v.(string); isStr {
		return s
	}
	return fmt.Sprint(v)
}

// Scalar reads a value compared by equality. Text is parsed into bool or number when possible.
func (p Params) Scalar(name string, def any) any {
	v, ok := p.lookup(name)
	if !ok {
		return def
	}
	if s, isStr := v.(string); isStr {
		return domain.ParseScalar(s)
	}
	return v
}

// Strings reads a list of keys.
func (p Params) Strings(name string) ([]string, error) {
	v, ok := p.lookup(name)
	if !ok {
		return nil, nil
	}
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case string:
		return []string{t}, nil
	default:
		return nil, invalidParam(name, v)
	}
}
