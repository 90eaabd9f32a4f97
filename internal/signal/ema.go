package signal

import (
	"fmt"
	"math"
	"strings"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/stats"
)

// Preference selects which EMA must be above the other.
type Preference string

const (
	PreferFast Preference = "fast"
	PreferSlow Preference = "slow"
)

func validatePeriods(p1, p2 int) error {
	if p1 <= 0 || p2 <= 0 {
		return fmt.Errorf("%w: got %d and %d", ErrInvalidPeriod, p1, p2)
	}
	if p1 == p2 {
		return fmt.Errorf("%w: both %d", ErrEqualPeriods, p1)
	}
	return nil
}

// emaPair tracks two EMAs of the same input; fast is the shorter period.
type emaPair struct {
	ema1, ema2 *stats.EMA
}

func newEMAPair(p1, p2 int) emaPair {
	return emaPair{ema1: stats.NewEMA(p1), ema2: stats.NewEMA(p2)}
}

func (e emaPair) update(x float64) (float64, float64) {
	return e.ema1.Update(x), e.ema2.Update(x)
}

func (e emaPair) fastSlow() (fast, slow float64) {
	v1, _ := e.ema1.Value()
	v2, _ := e.ema2.Value()
	if e.ema1.Period() < e.ema2.Period() {
		return v1, v2
	}
	return v2, v1
}

func (e emaPair) reset() {
	e.ema1.Reset()
	e.ema2.Reset()
}

func (e emaPair) state() []StateValue {
	v1, ok1 := e.ema1.Value()
	v2, ok2 := e.ema2.Value()
	return []StateValue{maybe("ema_1", v1, ok1), maybe("ema_2", v2, ok2)}
}

// EMAFastSlowConfig configures the fast/slow EMA comparison.
type EMAFastSlowConfig struct {
	ValueKey string
	Period1  int
	Period2  int
	Prefer   Preference
}

// Validate checks the config.
func (c EMAFastSlowConfig) Validate() error {
	if err := validatePeriods(c.Period1, c.Period2); err != nil {
		return err
	}
	if c.Prefer != PreferFast && c.Prefer != PreferSlow {
		return fmt.Errorf("%w: prefer must be 'fast' or 'slow', got %q", ErrInvalidParam, c.Prefer)
	}
	return nil
}

func parseEMAFastSlowConfig(p Params) (EMAFastSlowConfig, error) {
	var (
		cfg EMAFastSlowConfig
		err error
	)
	cfg.ValueKey = p.String("value_key", domain.RawValueKey)
	if cfg.Period1, err = p.Int("ema_period_1", 12); err != nil {
		return cfg, err
	}
	if cfg.Period2, err = p.Int("ema_period_2", 26); err != nil {
		return cfg, err
	}
	cfg.Prefer = Preference(strings.ToLower(strings.TrimSpace(p.String("prefer", string(PreferFast)))))
	return cfg, nil
}

// EMAFastSlowComparison emits true while the preferred EMA is above the other.
type EMAFastSlowComparison struct {
	cfg  EMAFastSlowConfig
	emas emaPair
}

// NewEMAFastSlowComparison creates the operator.
func NewEMAFastSlowComparison(cfg EMAFastSlowConfig) (*EMAFastSlowComparison, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EMAFastSlowComparison{cfg: cfg, emas: newEMAPair(cfg.Period1, cfg.Period2)}, nil
}

var _ Operator = (*EMAFastSlowComparison)(nil)

// Type returns the operator type name.
func (o *EMAFastSlowComparison) Type() string { return TypeEMAFastSlowComparison }

// Update folds the value into both EMAs and compares them.
func (o *EMAFastSlowComparison) Update(f domain.Features) bool {
	val, ok := f.Number(o.cfg.ValueKey)
	if !ok {
		return false
	}
	o.emas.update(val)
	fast, slow := o.emas.fastSlow()
	if o.cfg.Prefer == PreferFast {
		return fast > slow
	}
	return slow > fast
}

// Reset clears both EMAs.
func (o *EMAFastSlowComparison) Reset() { o.emas.reset() }

// State exposes ema_1 and ema_2.
func (o *EMAFastSlowComparison) State() []StateValue { return o.emas.state() }

// EMADiffConfig configures the EMA-diff percentile comparison.
type EMADiffConfig struct {
	ValueKey      string
	Period1       int
	Period2       int
	HistoryWindow int
	Percentile    float64
	MinHistory    int
	Comparison    Comparison

	// TraceLimit bounds the per-step trace. Non-positive keeps every step.
	TraceLimit int
}

// Validate checks the config.
func (c EMADiffConfig) Validate() error {
	if c.Period1 <= 0 || c.Period2 <= 0 {
		return fmt.Errorf("%w: got %d and %d", ErrInvalidPeriod, c.Period1, c.Period2)
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("%w: history_window must be > 0, got %d", ErrInvalidHistory, c.HistoryWindow)
	}
	if err := validatePercentile(c.Percentile); err != nil {
		return err
	}
	if c.MinHistory < 1 {
		return fmt.Errorf("%w: min_history must be >= 1, got %d", ErrInvalidHistory, c.MinHistory)
	}
	if c.MinHistory > c.HistoryWindow {
		return fmt.Errorf("%w: min_history cannot exceed history_window", ErrInvalidHistory)
	}
	_, err := ParseComparison(string(c.Comparison))
	return err
}

func parseEMADiffConfig(p Params) (EMADiffConfig, error) {
	var (
		cfg EMADiffConfig
		err error
	)
	cfg.ValueKey = p.String("value_key", domain.RawValueKey)
	if cfg.Period1, err = p.Int("ema_period_1", 12); err != nil {
		return cfg, err
	}
	if cfg.Period2, err = p.Int("ema_period_2", 26); err != nil {
		return cfg, err
	}
	if cfg.HistoryWindow, err = p.Int("history_window", 50); err != nil {
		return cfg, err
	}
	if cfg.Percentile, err = p.Float("percentile", 90); err != nil {
		return cfg, err
	}
	if cfg.MinHistory, err = p.Int("min_history", 1); err != nil {
		return cfg, err
	}
	if cfg.Comparison, err = ParseComparison(p.String("comparison", "gt")); err != nil {
		return cfg, err
	}
	if cfg.TraceLimit, err = p.Int("trace_limit", max(cfg.HistoryWindow, defaultTraceLimit)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EMATrace records one step of the EMA-diff operator. Fields without their
// Has flag set were undefined on that step.
type EMATrace struct {
	EMA1, EMA2   float64
	HasEMA       bool
	AbsDiff      float64
	HasAbsDiff   bool
	Threshold    float64
	HasThreshold bool
}

// EMADiffVsHistoryPercentile compares |ema1 - ema2| against a percentile of
// its own rolling history.
type EMADiffVsHistoryPercentile struct {
	cfg     EMADiffConfig
	emas    emaPair
	history *stats.Bounded[float64]
	trace   *stats.Bounded[EMATrace]

	lastAbsDiff   memo
	lastThreshold memo
}

// NewEMADiffVsHistoryPercentile creates the operator.
func NewEMADiffVsHistoryPercentile(cfg EMADiffConfig) (*EMADiffVsHistoryPercentile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EMADiffVsHistoryPercentile{
		cfg:     cfg,
		emas:    newEMAPair(cfg.Period1, cfg.Period2),
		history: stats.NewBounded[float64](cfg.HistoryWindow),
		trace:   stats.NewBounded[EMATrace](cfg.TraceLimit),
	}, nil
}

var _ Operator = (*EMADiffVsHistoryPercentile)(nil)

// Type returns the operator type name.
func (o *EMADiffVsHistoryPercentile) Type() string { return TypeEMADiffVsHistoryPercentile }

// Update folds the value and compares the diff.
func (o *EMADiffVsHistoryPercentile) Update(f domain.Features) bool {
	var (
		fired     bool
		absDiff   memo
		threshold memo
	)

	if val, ok := f.Number(o.cfg.ValueKey); ok {
		e1, e2 := o.emas.update(val)
		absDiff.store(math.Abs(e1 - e2))

		if o.history.Len() >= o.cfg.MinHistory {
			if thr, ok := historyPercentile(o.history, o.cfg.Percentile); ok {
				threshold.store(thr)
				fired = o.cfg.Comparison.Holds(absDiff.value, thr)
			}
		}
		o.history.Push(absDiff.value)
	}

	o.lastAbsDiff = absDiff
	o.lastThreshold = threshold

	e1, hasEMA := o.emas.ema1.Value()
	e2, _ := o.emas.ema2.Value()
	o.trace.Push(EMATrace{
		EMA1:         e1,
		EMA2:         e2,
		HasEMA:       hasEMA,
		AbsDiff:      absDiff.value,
		HasAbsDiff:   absDiff.set,
		Threshold:    threshold.value,
		HasThreshold: threshold.set,
	})
	return fired
}

// Trace returns the recorded steps, oldest first.
func (o *EMADiffVsHistoryPercentile) Trace() []EMATrace {
	return o.trace.Items()
}

// Reset clears EMAs, history and trace.
func (o *EMADiffVsHistoryPercentile) Reset() {
	o.emas.reset()
	o.history.Reset()
	o.trace.Reset()
	o.lastAbsDiff = memo{}
	o.lastThreshold = memo{}
}

// State exposes the EMAs, the last diff and threshold.
func (o *EMADiffVsHistoryPercentile) State() []StateValue {
	return append(o.emas.state(),
		maybe("last_abs_diff", o.lastAbsDiff.value, o.lastAbsDiff.set),
		maybe("last_threshold", o.lastThreshold.value, o.lastThreshold.set),
	)
}
