package signal

import (
	"fmt"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/stats"
)

// RollingPercentileConfig configures the rolling-percentile comparison.
type RollingPercentileConfig struct {
	ValueKey       string
	WindowSize     int
	Percentile     float64
	IncludeCurrent bool
	MinHistory     int
	Comparison     Comparison
}

// Validate checks the config.
func (c RollingPercentileConfig) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size must be > 0, got %d", ErrInvalidWindow, c.WindowSize)
	}
	if c.MinHistory < 0 {
		return fmt.Errorf("%w: min_history must be >= 0, got %d", ErrInvalidHistory, c.MinHistory)
	}
	if _, err := ParseComparison(string(c.Comparison)); err != nil {
		return err
	}
	return validatePercentile(c.Percentile)
}

func parseRollingPercentileConfig(p Params) (RollingPercentileConfig, error) {
	var (
		cfg RollingPercentileConfig
		err error
	)
	cfg.ValueKey = p.String("value_key", domain.RawValueKey)
	if cfg.WindowSize, err = p.Int("window_size", 20); err != nil {
		return cfg, err
	}
	if cfg.Percentile, err = p.Float("percentile", 50); err != nil {
		return cfg, err
	}
	if cfg.IncludeCurrent, err = p.Bool("include_current", false); err != nil {
		return cfg, err
	}
	if cfg.MinHistory, err = p.Int("min_history", 1); err != nil {
		return cfg, err
	}
	if cfg.Comparison, err = ParseComparison(p.String("comparison", "gt")); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RollingPercentile compares the current value against a percentile of the
// previous WindowSize values. The current value joins the history after the
// comparison.
type RollingPercentile struct {
	typ     string
	cfg     RollingPercentileConfig
	history *stats.Bounded[float64]

	lastThreshold    float64
	hasLastThreshold bool
}

// NewRollingPercentile creates the plain variant.
func NewRollingPercentile(cfg RollingPercentileConfig) (*RollingPercentile, error) {
	return newRollingPercentile(TypeRollingPercentile, cfg)
}

// NewRollingPercentileWithThreshold creates the variant whose threshold is part of its exported state.
func NewRollingPercentileWithThreshold(cfg RollingPercentileConfig) (*RollingPercentile, error) {
	return newRollingPercentile(TypeRollingPercentileWithThreshold, cfg)
}

func newRollingPercentile(typ string, cfg RollingPercentileConfig) (*RollingPercentile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RollingPercentile{
		typ:     typ,
		cfg:     cfg,
		history: stats.NewBounded[float64](cfg.WindowSize),
	}, nil
}

var _ Operator = (*RollingPercentile)(nil)

// Type returns the operator type name.
func (o *RollingPercentile) Type() string { return o.typ }

// Update compares the value to the history percentile.
func (o *RollingPercentile) Update(f domain.Features) bool {
	o.hasLastThreshold = false
	val, ok := f.Number(o.cfg.ValueKey)
	if !ok {
		return false
	}

	fired := false
	if o.history.Len() >= o.cfg.MinHistory {
		seq := o.history.View()
		if o.cfg.IncludeCurrent {
			seq = append(o.history.Items(), val)
		}
		if thr, ok := stats.Percentile(seq, o.cfg.Percentile); ok {
			o.lastThreshold, o.hasLastThreshold = thr, true
			fired = o.cfg.Comparison.Holds(val, thr)
		}
	}

	o.history.Push(val)
	return fired
}

// LastThreshold returns the threshold used on the most recent step.
func (o *RollingPercentile) LastThreshold() (float64, bool) {
	return o.lastThreshold, o.hasLastThreshold
}

// History returns a copy of the value history, oldest first.
func (o *RollingPercentile) History() []float64 {
	return o.history.Items()
}

// Reset clears the history.
func (o *RollingPercentile) Reset() {
	o.history.Reset()
	o.lastThreshold, o.hasLastThreshold = 0, false
}

// State exposes last_threshold.
func (o *RollingPercentile) State() []StateValue {
	return []StateValue{maybe("last_threshold", o.lastThreshold, o.hasLastThreshold)}
}
