package signal

import (
	"fmt"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/stats"
)

// memo is an optional remembered value.
type memo struct {
	value float64
	set   bool
}

func (m *memo) store(v float64) { m.value, m.set = v, true }

// ReferenceConfig configures the last-true-reference comparison.
type ReferenceConfig struct {
	ValueKey           string
	ReferenceSignalKey string
	Comparison         Comparison
}

func parseReferenceConfig(p Params) (ReferenceConfig, error) {
	cmp, err := ParseComparison(p.String("comparison", "lt"))
	if err != nil {
		return ReferenceConfig{}, err
	}
	return ReferenceConfig{
		ValueKey:           p.String("value_key", domain.RawValueKey),
		ReferenceSignalKey: p.String("reference_signal_key", ""),
		Comparison:         cmp,
	}, nil
}

// ValueVsLastTrueReference remembers the value seen while the reference is
// true and, while it is false, compares the current value against it.
type ValueVsLastTrueReference struct {
	cfg  ReferenceConfig
	last memo
}

// NewValueVsLastTrueReference creates the operator.
func NewValueVsLastTrueReference(cfg ReferenceConfig) *ValueVsLastTrueReference {
	return &ValueVsLastTrueReference{cfg: cfg}
}

var _ Operator = (*ValueVsLastTrueReference)(nil)

// Type returns the operator type name.
func (o *ValueVsLastTrueReference) Type() string { return TypeValueVsLastTrueReference }

// Update records or compares.
func (o *ValueVsLastTrueReference) Update(f domain.Features) bool {
	val, ok := f.Number(o.cfg.ValueKey)
	if f.Truthy(o.cfg.ReferenceSignalKey) {
		if ok {
			o.last.store(val)
		}
		return false
	}
	if !o.last.set || !ok {
		return false
	}
	return o.cfg.Comparison.Holds(val, o.last.value)
}

// Reset forgets the reference.
func (o *ValueVsLastTrueReference) Reset() { o.last = memo{} }

// State exposes last_reference_value.
func (o *ValueVsLastTrueReference) State() []StateValue {
	return []StateValue{maybe("last_reference_value", o.last.value, o.last.set)}
}

// TargetForBaseConfig configures the last-target-for-base comparison.
type TargetForBaseConfig struct {
	ValueKey        string
	BaseSignalKey   string
	TargetSignalKey string
	Comparison      Comparison
}

func parseTargetForBaseConfig(p Params) (TargetForBaseConfig, error) {
	cmp, err := ParseComparison(p.String("comparison", "lt"))
	if err != nil {
		return TargetForBaseConfig{}, err
	}
	return TargetForBaseConfig{
		ValueKey:        p.String("value_key", domain.RawValueKey),
		BaseSignalKey:   p.String("base_signal_key", ""),
		TargetSignalKey: p.String("target_signal_key", ""),
		Comparison:      cmp,
	}, nil
}

// ValueVsLastTargetForBase remembers the value seen while target is true and,
// while base is true, compares the current value against it. A step where
// both are true updates the memory and emits false.
type ValueVsLastTargetForBase struct {
	cfg  TargetForBaseConfig
	last memo
}

// NewValueVsLastTargetForBase creates the operator.
func NewValueVsLastTargetForBase(cfg TargetForBaseConfig) *ValueVsLastTargetForBase {
	return &ValueVsLastTargetForBase{cfg: cfg}
}

var _ Operator = (*ValueVsLastTargetForBase)(nil)

// Type returns the operator type name.
func (o *ValueVsLastTargetForBase) Type() string { return TypeValueVsLastTargetForBase }

// Update records or compares.
func (o *ValueVsLastTargetForBase) Update(f domain.Features) bool {
	val, ok := f.Number(o.cfg.ValueKey)
	base := f.Truthy(o.cfg.BaseSignalKey)

	if f.Truthy(o.cfg.TargetSignalKey) && ok {
		o.last.store(val)
		if base {
			return false
		}
	}
	if !base || !o.last.set || !ok {
		return false
	}
	return o.cfg.Comparison.Holds(val, o.last.value)
}

// Reset forgets the target value.
func (o *ValueVsLastTargetForBase) Reset() { o.last = memo{} }

// State exposes last_target_value.
func (o *ValueVsLastTargetForBase) State() []StateValue {
	return []StateValue{maybe("last_target_value", o.last.value, o.last.set)}
}

// PreviousConfig configures the value-vs-previous comparison.
type PreviousConfig struct {
	ValueKey   string
	Comparison Comparison
}

func parsePreviousConfig(p Params) (PreviousConfig, error) {
	cmp, err := ParseComparison(p.String("comparison", "gt"))
	if err != nil {
		return PreviousConfig{}, err
	}
	return PreviousConfig{
		ValueKey:   p.String("value_key", domain.RawValueKey),
		Comparison: cmp,
	}, nil
}

// ValueVsPrevious compares each value to the one before it. A missing value
// also becomes the new previous, so the next step emits false.
type ValueVsPrevious struct {
	cfg  PreviousConfig
	prev memo
}

// NewValueVsPrevious creates the operator.
func NewValueVsPrevious(cfg PreviousConfig) *ValueVsPrevious {
	return &ValueVsPrevious{cfg: cfg}
}

var _ Operator = (*ValueVsPrevious)(nil)

// Type returns the operator type name.
func (o *ValueVsPrevious) Type() string { return TypeValueVsPrevious }

// Update compares and remembers.
func (o *ValueVsPrevious) Update(f domain.Features) bool {
	val, ok := f.Number(o.cfg.ValueKey)
	fired := ok && o.prev.set && o.cfg.Comparison.Holds(val, o.prev.value)
	o.prev = memo{value: val, set: ok}
	return fired
}

// Reset forgets the previous value.
func (o *ValueVsPrevious) Reset() { o.prev = memo{} }

// State exposes previous_value.
func (o *ValueVsPrevious) State() []StateValue {
	return []StateValue{maybe("previous_value", o.prev.value, o.prev.set)}
}

// RunStatisticConfig configures the last-signal-run statistic comparison.
type RunStatisticConfig struct {
	ValueKey   string
	SignalKey  string
	Statistic  stats.Statistic
	Percentile float64
	Comparison Comparison
}

// Validate checks the config.
func (c RunStatisticConfig) Validate() error {
	if _, err := stats.ParseStatistic(string(c.Statistic)); err != nil {
		return fmt.Errorf("%w: got %q", ErrInvalidStatistic, c.Statistic)
	}
	if c.Statistic == stats.StatPercentile {
		return validatePercentile(c.Percentile)
	}
	return nil
}

func parseRunStatisticConfig(p Params) (RunStatisticConfig, error) {
	var (
		cfg RunStatisticConfig
		err error
	)
	cfg.ValueKey = p.String("value_key", domain.RawValueKey)
	cfg.SignalKey = p.String("signal_key", "")
	raw := p.String("statistic", string(stats.StatMean))
	if cfg.Statistic, err = stats.ParseStatistic(raw); err != nil {
		return cfg, fmt.Errorf("%w: got %q", ErrInvalidStatistic, raw)
	}
	if cfg.Percentile, err = p.Float("percentile", 50); err != nil {
		return cfg, err
	}
	if cfg.Comparison, err = ParseComparison(p.String("comparison", "gt")); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ValueVsLastSignalRunStatistic accumulates values while a signal is true,
// reduces them to a statistic on the falling edge, and compares each value
// against the most recent statistic.
type ValueVsLastSignalRunStatistic struct {
	cfg      RunStatisticConfig
	values   []float64
	inRun    bool
	lastStat memo
}

// NewValueVsLastSignalRunStatistic creates the operator.
func NewValueVsLastSignalRunStatistic(cfg RunStatisticConfig) (*ValueVsLastSignalRunStatistic, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ValueVsLastSignalRunStatistic{cfg: cfg}, nil
}

var _ Operator = (*ValueVsLastSignalRunStatistic)(nil)

// Type returns the operator type name.
func (o *ValueVsLastSignalRunStatistic) Type() string { return TypeValueVsLastSignalRunStatistic }

// Update accumulates or compares.
func (o *ValueVsLastSignalRunStatistic) Update(f domain.Features) bool {
	val, ok := f.Number(o.cfg.ValueKey)

	if f.Truthy(o.cfg.SignalKey) {
		if ok {
			o.values = append(o.values, val)
		}
		o.inRun = true
	} else if o.inRun {
		st, has := stats.Compute(o.cfg.Statistic, o.values, o.cfg.Percentile)
		o.lastStat = memo{value: st, set: has}
		o.values = o.values[:0]
		o.inRun = false
	}

	if !ok || !o.lastStat.set {
		return false
	}
	return o.cfg.Comparison.Holds(val, o.lastStat.value)
}

// Reset clears the run and statistic.
func (o *ValueVsLastSignalRunStatistic) Reset() {
	o.values = o.values[:0]
	o.inRun = false
	o.lastStat = memo{}
}

// State exposes last_statistic.
func (o *ValueVsLastSignalRunStatistic) State() []StateValue {
	return []StateValue{maybe("last_statistic", o.lastStat.value, o.lastStat.set)}
}
