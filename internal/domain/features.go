package domain

import (
	"math"
	"strconv"
	"strings"
)

// RawValueKey is the feature key holding a point's primary value.
const RawValueKey = "value"

// Features is the named scalar mapping consumed by signal operators for one step.
// Values are numbers, booleans or strings; anything else is opaque.
type Features map[string]any

// Number returns the value under key as float64.
// Booleans, strings, NaN and missing keys are not numeric.
func (f Features) Number(key string) (float64, bool) {
	v, ok := f[key]
	if !ok {
		return 0, false
	}
	return ToNumber(v)
}

// Truthy reports whether the value under key is truthy. Missing keys are false.
func (f Features) Truthy(key string) bool {
	return IsTruthy(f[key])
}

// Clone returns a shallow copy.
func (f Features) Clone() Features {
	out := make(Features, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ToNumber converts numeric Go values to float64.
func ToNumber(v any) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int8:
		x = float64(n)
	case int16:
		x = float64(n)
	case int32:
		x = float64(n)
	case int64:
		x = float64(n)
	case uint:
		x = float64(n)
	case uint8:
		x = float64(n)
	case uint16:
		x = float64(n)
	case uint32:
		x = float64(n)
	case uint64:
		x = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(x) {
		return 0, false
	}
	return x, true
}

// IsTruthy follows the usual scalar truthiness: non-zero numbers, true,
// non-empty strings. nil is false.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if n, ok := ToNumber(v); ok {
		return n != 0
	}
	// NaN and opaque values
	return true
}

// Equal compares two scalars by value. Numbers and booleans compare
// numerically (true == 1), strings compare exactly, mixed kinds are unequal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := numeric(a); ok {
		y, ok := numeric(b)
		return ok && x == y
	}
	sa, ok := a.(string)
	if !ok {
		return false
	}
	sb, ok := b.(string)
	return ok && sa == sb
}

func numeric(v any) (float64, bool) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return ToNumber(v)
}

// ParseScalar interprets text as bool, integer or float when it looks like one.
// Other strings are returned trimmed.
func ParseScalar(s string) any {
	raw := strings.TrimSpace(s)
	switch strings.ToLower(raw) {
	case "":
		return raw
	case "true":
		return true
	case "false":
		return false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return f
}
