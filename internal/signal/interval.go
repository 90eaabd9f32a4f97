package signal

import (
	"fmt"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/stats"
)

// Interval close reasons.
const (
	ClosedByEndSignal = "end_signal"
	ClosedByMaxLength = "max_length"
)

// IntervalConfig configures interval-between-markers.
type IntervalConfig struct {
	StartSignalKey string
	EndSignalKey   string

	// MaxLength caps an interval's length. Zero means uncapped.
	MaxLength int

	// IntervalsLimit bounds the closed-interval history. Non-positive keeps every interval.
	IntervalsLimit int
}

func parseIntervalConfig(p Params) (IntervalConfig, error) {
	cfg := IntervalConfig{
		StartSignalKey: p.String("start_signal_key", ""),
		EndSignalKey:   p.String("end_signal_key", ""),
	}
	maxLen, set, err := p.OptionalInt("max_length")
	if err != nil {
		return cfg, err
	}
	if set {
		if maxLen <= 0 {
			return cfg, fmt.Errorf("%w: max_length must be > 0 when provided, got %d", ErrInvalidWindow, maxLen)
		}
		cfg.MaxLength = maxLen
	}
	if cfg.IntervalsLimit, err = p.Int("intervals_limit", defaultTraceLimit); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Interval is one closed interval. Indices count steps from construction or reset.
type Interval struct {
	StartIndex int
	EndIndex   int
	Length     int
	ClosedBy   string
}

// IntervalBetweenMarkers emits true from a start marker until an end marker
// or MaxLength, inclusive of both ends.
type IntervalBetweenMarkers struct {
	cfg       IntervalConfig
	intervals *stats.Bounded[Interval]

	active     bool
	length     int
	startIndex int
	stepIndex  int
	lastLength memo
	lastClose  string
}

// NewIntervalBetweenMarkers creates the operator.
func NewIntervalBetweenMarkers(cfg IntervalConfig) (*IntervalBetweenMarkers, error) {
	if cfg.MaxLength < 0 {
		return nil, fmt.Errorf("%w: max_length must be > 0 when provided, got %d", ErrInvalidWindow, cfg.MaxLength)
	}
	return &IntervalBetweenMarkers{
		cfg:       cfg,
		intervals: stats.NewBounded[Interval](cfg.IntervalsLimit),
	}, nil
}

var _ Operator = (*IntervalBetweenMarkers)(nil)

// Type returns the operator type name.
func (o *IntervalBetweenMarkers) Type() string { return TypeIntervalBetweenMarkers }

// Update advances the interval state machine.
func (o *IntervalBetweenMarkers) Update(f domain.Features) bool {
	start := f.Truthy(o.cfg.StartSignalKey)
	end := f.Truthy(o.cfg.EndSignalKey)
	fired := false

	switch {
	case o.active:
		o.length++
		fired = true
		o.maybeClose(end)
	case start:
		o.active = true
		o.length = 1
		o.startIndex = o.stepIndex
		fired = true
		o.maybeClose(end)
	}

	o.stepIndex++
	return fired
}

func (o *IntervalBetweenMarkers) maybeClose(end bool) {
	reachedMax := o.cfg.MaxLength > 0 && o.length >= o.cfg.MaxLength
	if !end && !reachedMax {
		return
	}
	reason := ClosedByMaxLength
	if end {
		reason = ClosedByEndSignal
	}
	o.intervals.Push(Interval{
		StartIndex: o.startIndex,
		EndIndex:   o.stepIndex,
		Length:     o.length,
		ClosedBy:   reason,
	})
	o.lastLength.store(float64(o.length))
	o.lastClose = reason
	o.active = false
	o.length = 0
	o.startIndex = 0
}

// Intervals returns closed intervals, oldest first.
func (o *IntervalBetweenMarkers) Intervals() []Interval {
	return o.intervals.Items()
}

// LastClosedBy returns the reason the most recent interval closed, empty if none has.
func (o *IntervalBetweenMarkers) LastClosedBy() string {
	return o.lastClose
}

// Reset returns to idle and clears the history.
func (o *IntervalBetweenMarkers) Reset() {
	o.intervals.Reset()
	o.active = false
	o.length = 0
	o.startIndex = 0
	o.stepIndex = 0
	o.lastLength = memo{}
	o.lastClose = ""
}

// State exposes last_interval_length.
func (o *IntervalBetweenMarkers) State() []StateValue {
	return []StateValue{maybe("last_interval_length", o.lastLength.value, o.lastLength.set)}
}

// NthTargetConfig configures nth-target-within-window-after-trigger.
type NthTargetConfig struct {
	TriggerSignalKey string
	TargetSignalKey  string
	WindowLength     int
	TargetIndex      int
}

// Validate checks the config.
func (c NthTargetConfig) Validate() error {
	if c.WindowLength <= 0 {
		return fmt.Errorf("%w: window_length must be > 0, got %d", ErrInvalidWindow, c.WindowLength)
	}
	if c.TargetIndex < 1 {
		return fmt.Errorf("%w: target_index must be >= 1, got %d", ErrInvalidParam, c.TargetIndex)
	}
	return nil
}

func parseNthTargetConfig(p Params) (NthTargetConfig, error) {
	var (
		cfg NthTargetConfig
		err error
	)
	cfg.TriggerSignalKey = p.String("trigger_signal_key", "")
	cfg.TargetSignalKey = p.String("target_signal_key", "")
	if cfg.WindowLength, err = p.Int("window_length", 20); err != nil {
		return cfg, err
	}
	if cfg.TargetIndex, err = p.Int("target_index", 1); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// searchWindow is one open countdown started by a trigger.
type searchWindow struct {
	remaining int
	seen      int
	startStep int
}

// NthTargetWithinWindowAfterTrigger opens an independent countdown on every
// trigger and fires on the step a window observes its TargetIndex-th target.
type NthTargetWithinWindowAfterTrigger struct {
	cfg         NthTargetConfig
	windows     []searchWindow
	stepIndex   int
	lastSuccess *bool
}

// NewNthTargetWithinWindowAfterTrigger creates the operator.
func NewNthTargetWithinWindowAfterTrigger(cfg NthTargetConfig) (*NthTargetWithinWindowAfterTrigger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &NthTargetWithinWindowAfterTrigger{cfg: cfg}, nil
}

var _ Operator = (*NthTargetWithinWindowAfterTrigger)(nil)

// Type returns the operator type name.
func (o *NthTargetWithinWindowAfterTrigger) Type() string {
	return TypeNthTargetWithinWindowAfterTrigger
}

// Update advances every open window, then opens one if triggered.
func (o *NthTargetWithinWindowAfterTrigger) Update(f domain.Features) bool {
	target := f.Truthy(o.cfg.TargetSignalKey)
	fired := false

	open := o.windows[:0]
	for _, w := range o.windows {
		if target {
			w.seen++
			if w.seen == o.cfg.TargetIndex {
				fired = true
				o.setSuccess(true)
				continue
			}
		}
		w.remaining--
		if w.remaining <= 0 {
			o.setSuccess(false)
			continue
		}
		open = append(open, w)
	}
	o.windows = open

	if f.Truthy(o.cfg.TriggerSignalKey) {
		o.windows = append(o.windows, searchWindow{
			remaining: o.cfg.WindowLength,
			startStep: o.stepIndex,
		})
	}

	o.stepIndex++
	return fired
}

func (o *NthTargetWithinWindowAfterTrigger) setSuccess(ok bool) {
	o.lastSuccess = &ok
}

// OpenWindows returns the number of windows still searching.
func (o *NthTargetWithinWindowAfterTrigger) OpenWindows() int {
	return len(o.windows)
}

// LastSearchSuccess reports whether the most recently finished window fired.
// The second result is false until a window has finished.
func (o *NthTargetWithinWindowAfterTrigger) LastSearchSuccess() (bool, bool) {
	if o.lastSuccess == nil {
		return false, false
	}
	return *o.lastSuccess, true
}

// Reset closes every window.
func (o *NthTargetWithinWindowAfterTrigger) Reset() {
	o.windows = o.windows[:0]
	o.stepIndex = 0
	o.lastSuccess = nil
}
