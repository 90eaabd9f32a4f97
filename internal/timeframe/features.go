package timeframe

import (
	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/stats"
)

// SingleFieldStats summarizes one numeric field over the window as
// <prefix>_count, <prefix>_mean, <prefix>_min and <prefix>_max. Non-numeric
// values are skipped; with none left the count is 0 and the rest are nil.
type SingleFieldStats struct {
	Field  string
	Prefix string
}

// Compute implements FeatureModule.
func (m SingleFieldStats) Compute(window []domain.Point) domain.Features {
	vals := make([]float64, 0, len(window))
	for _, p := range window {
		if x, ok := p.Features.Number(m.Field); ok {
			vals = append(vals, x)
		}
	}

	out := domain.Features{
		m.Prefix + "_count": len(vals),
		m.Prefix + "_mean":  nil,
		m.Prefix + "_min":   nil,
		m.Prefix + "_max":   nil,
	}
	if len(vals) == 0 {
		return out
	}

	mean, _ := stats.Mean(vals)
	lo, _ := stats.Min(vals)
	hi, _ := stats.Max(vals)
	out[m.Prefix+"_mean"] = mean
	out[m.Prefix+"_min"] = lo
	out[m.Prefix+"_max"] = hi
	return out
}

// lastPointEcho copies fields of the newest point.
type lastPointEcho struct {
	fields []string
}

// LastPointEcho echoes the named fields of the newest point, or every field
// when none are named. Missing fields read as nil.
func LastPointEcho(fields ...string) FeatureModule {
	return lastPointEcho{fields: fields}
}

// Compute implements FeatureModule.
func (m lastPointEcho) Compute(window []domain.Point) domain.Features {
	if len(window) == 0 {
		out := make(domain.Features, len(m.fields))
		for _, name := range m.fields {
			out[name] = nil
		}
		return out
	}

	last := window[len(window)-1]
	if len(m.fields) == 0 {
		return last.Features.Clone()
	}
	out := make(domain.Features, len(m.fields))
	for _, name := range m.fields {
		out[name] = last.Features[name]
	}
	return out
}
