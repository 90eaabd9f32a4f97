package signal

import (
	"fmt"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/stats"
)

// runState is the counter, latch and tail shared by the run-length operators.
type runState struct {
	currentRun    int
	active        bool
	tailRemaining int
}

// drainTail consumes one tail step.
func (s *runState) drainTail() bool {
	if s.tailRemaining > 0 {
		s.tailRemaining--
		return true
	}
	return false
}

func (s *runState) state() []StateValue {
	return []StateValue{
		known("current_run", float64(s.currentRun)),
		known("tail_remaining", float64(s.tailRemaining)),
	}
}

// RunLengthConfig configures run-length reached and run interrupted.
type RunLengthConfig struct {
	SignalKey        string
	TargetValue      any
	MinRunLength     int
	PostRunExtension int
}

func parseRunLengthConfig(p Params) (RunLengthConfig, error) {
	var (
		cfg RunLengthConfig
		err error
	)
	cfg.SignalKey = p.String("signal_key", "")
	cfg.TargetValue = p.Scalar("target_value", int64(1))
	if cfg.MinRunLength, err = p.Int("min_run_length", 3); err != nil {
		return cfg, err
	}
	if cfg.PostRunExtension, err = p.Int("post_run_extension", 0); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RunLengthReached latches once a run of TargetValue reaches MinRunLength and
// stays true until the run breaks, then for PostRunExtension more steps.
type RunLengthReached struct {
	cfg RunLengthConfig
	runState
}

// NewRunLengthReached creates the operator.
func NewRunLengthReached(cfg RunLengthConfig) *RunLengthReached {
	return &RunLengthReached{cfg: cfg}
}

var _ Operator = (*RunLengthReached)(nil)

// Type returns the operator type name.
func (o *RunLengthReached) Type() string { return TypeRunLengthReached }

// Update advances the run.
func (o *RunLengthReached) Update(f domain.Features) bool {
	if !domain.Equal(f[o.cfg.SignalKey], o.cfg.TargetValue) {
		if o.currentRun > 0 && o.active && o.cfg.PostRunExtension > 0 {
			o.tailRemaining = o.cfg.PostRunExtension
		}
		o.currentRun = 0
		o.active = false
		return o.drainTail()
	}

	o.currentRun++
	o.tailRemaining = 0
	if o.active {
		return true
	}
	if o.currentRun >= o.cfg.MinRunLength {
		o.active = true
		return true
	}
	return false
}

// Reset clears the run.
func (o *RunLengthReached) Reset() { o.runState = runState{} }

// State exposes current_run and tail_remaining.
func (o *RunLengthReached) State() []StateValue { return o.runState.state() }

// RunInterrupted fires on the step a run of at least MinRunLength ends.
type RunInterrupted struct {
	cfg RunLengthConfig
	runState
}

// NewRunInterrupted creates the operator.
func NewRunInterrupted(cfg RunLengthConfig) *RunInterrupted {
	return &RunInterrupted{cfg: cfg}
}

var _ Operator = (*RunInterrupted)(nil)

// Type returns the operator type name.
func (o *RunInterrupted) Type() string { return TypeRunInterrupted }

// Update advances the run.
func (o *RunInterrupted) Update(f domain.Features) bool {
	if domain.Equal(f[o.cfg.SignalKey], o.cfg.TargetValue) {
		o.currentRun++
		o.tailRemaining = 0
		return false
	}

	if o.currentRun >= o.cfg.MinRunLength {
		o.currentRun = 0
		if o.cfg.PostRunExtension > 0 {
			o.tailRemaining = o.cfg.PostRunExtension
		}
		return true
	}

	o.currentRun = 0
	return o.drainTail()
}

// Reset clears the run.
func (o *RunInterrupted) Reset() { o.runState = runState{} }

// State exposes current_run and tail_remaining.
func (o *RunInterrupted) State() []StateValue { return o.runState.state() }

// RunHistoryConfig configures the run-length operators thresholded by past runs.
type RunHistoryConfig struct {
	SignalKey        string
	TargetValue      any
	HistoryWindow    int
	Percentile       float64
	MinHistoryRuns   int
	PostRunExtension int

	// RunTraceLimit bounds the run trace. Non-positive keeps every run.
	RunTraceLimit int
}

// Validate checks the config.
func (c RunHistoryConfig) Validate() error {
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("%w: history_window must be > 0, got %d", ErrInvalidHistory, c.HistoryWindow)
	}
	if err := validatePercentile(c.Percentile); err != nil {
		return err
	}
	if c.MinHistoryRuns < 1 {
		return fmt.Errorf("%w: min_history_runs must be >= 1, got %d", ErrInvalidHistory, c.MinHistoryRuns)
	}
	if c.MinHistoryRuns > c.HistoryWindow {
		return fmt.Errorf("%w: min_history_runs cannot exceed history_window", ErrInvalidHistory)
	}
	return nil
}

func parseRunHistoryConfig(p Params, minRunsDefault int) (RunHistoryConfig, error) {
	var (
		cfg RunHistoryConfig
		err error
	)
	cfg.SignalKey = p.String("signal_key", "")
	cfg.TargetValue = p.Scalar("target_value", int64(1))
	if cfg.HistoryWindow, err = p.Int("history_window", 100); err != nil {
		return cfg, err
	}
	if cfg.Percentile, err = p.Float("percentile", 90); err != nil {
		return cfg, err
	}
	if cfg.MinHistoryRuns, err = p.Int("min_history_runs", minRunsDefault); err != nil {
		return cfg, err
	}
	if cfg.PostRunExtension, err = p.Int("post_run_extension", 0); err != nil {
		return cfg, err
	}
	if cfg.RunTraceLimit, err = p.Int("run_trace_limit", max(cfg.HistoryWindow, defaultTraceLimit)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RunTrace records one completed run.
type RunTrace struct {
	RunLength    int
	Threshold    float64
	HasThreshold bool
	Activated    bool
}

// RunLengthReachedHistoryPercentile latches once the current run reaches a
// percentile of previously completed run lengths. The threshold is fixed at
// the start of each run.
type RunLengthReachedHistoryPercentile struct {
	cfg RunHistoryConfig
	runState
	history *stats.Bounded[float64]
	trace   *stats.Bounded[RunTrace]

	currentThreshold    float64
	hasCurrentThreshold bool
	lastThreshold       float64
	hasLastThreshold    bool
}

// NewRunLengthReachedHistoryPercentile creates the operator.
func NewRunLengthReachedHistoryPercentile(cfg RunHistoryConfig) (*RunLengthReachedHistoryPercentile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RunLengthReachedHistoryPercentile{
		cfg:     cfg,
		history: stats.NewBounded[float64](cfg.HistoryWindow),
		trace:   stats.NewBounded[RunTrace](cfg.RunTraceLimit),
	}, nil
}

var _ Operator = (*RunLengthReachedHistoryPercentile)(nil)

// Type returns the operator type name.
func (o *RunLengthReachedHistoryPercentile) Type() string {
	return TypeRunLengthReachedHistoryPercentile
}

// Update advances the run.
func (o *RunLengthReachedHistoryPercentile) Update(f domain.Features) bool {
	if !domain.Equal(f[o.cfg.SignalKey], o.cfg.TargetValue) {
		prev, hasPrev := o.lastThreshold, o.hasLastThreshold
		if o.currentRun > 0 {
			prev, hasPrev = o.currentThreshold, o.hasCurrentThreshold
		}
		o.finalizeRun()
		if o.active && o.cfg.PostRunExtension > 0 {
			o.tailRemaining = o.cfg.PostRunExtension
		}
		o.currentRun = 0
		o.currentThreshold, o.hasCurrentThreshold = 0, false
		o.active = false
		o.lastThreshold, o.hasLastThreshold = prev, hasPrev
		return o.drainTail()
	}

	if o.currentRun == 0 {
		o.currentThreshold, o.hasCurrentThreshold = o.threshold()
	}
	o.currentRun++
	o.tailRemaining = 0
	if !o.active && o.hasCurrentThreshold && float64(o.currentRun) >= o.currentThreshold {
		o.active = true
	}
	o.lastThreshold, o.hasLastThreshold = o.currentThreshold, o.hasCurrentThreshold
	return o.active
}

func (o *RunLengthReachedHistoryPercentile) threshold() (float64, bool) {
	if o.history.Len() < o.cfg.MinHistoryRuns {
		return 0, false
	}
	return historyPercentile(o.history, o.cfg.Percentile)
}

func (o *RunLengthReachedHistoryPercentile) finalizeRun() {
	if o.currentRun == 0 {
		return
	}
	o.trace.Push(RunTrace{
		RunLength:    o.currentRun,
		Threshold:    o.currentThreshold,
		HasThreshold: o.hasCurrentThreshold,
		Activated:    o.active,
	})
	o.history.Push(float64(o.currentRun))
}

// RunTrace returns the recorded runs, oldest first.
func (o *RunLengthReachedHistoryPercentile) RunTrace() []RunTrace {
	return o.trace.Items()
}

// Reset clears runs, history and trace.
func (o *RunLengthReachedHistoryPercentile) Reset() {
	o.runState = runState{}
	o.history.Reset()
	o.trace.Reset()
	o.currentThreshold, o.hasCurrentThreshold = 0, false
	o.lastThreshold, o.hasLastThreshold = 0, false
}

// State exposes the run counters and thresholds.
func (o *RunLengthReachedHistoryPercentile) State() []StateValue {
	return []StateValue{
		known("current_run", float64(o.currentRun)),
		maybe("current_threshold", o.currentThreshold, o.hasCurrentThreshold),
		maybe("last_threshold", o.lastThreshold, o.hasLastThreshold),
		known("tail_remaining", float64(o.tailRemaining)),
	}
}

// RunLengthVsHistoryPercentile latches once the current run strictly exceeds
// a percentile of completed run lengths, recomputed every step of the run.
type RunLengthVsHistoryPercentile struct {
	cfg RunHistoryConfig
	runState
	history *stats.Bounded[float64]
}

// NewRunLengthVsHistoryPercentile creates the operator.
func NewRunLengthVsHistoryPercentile(cfg RunHistoryConfig) (*RunLengthVsHistoryPercentile, error) {
	if cfg.HistoryWindow <= 0 {
		return nil, fmt.Errorf("%w: history_window must be > 0, got %d", ErrInvalidHistory, cfg.HistoryWindow)
	}
	if err := validatePercentile(cfg.Percentile); err != nil {
		return nil, err
	}
	return &RunLengthVsHistoryPercentile{
		cfg:     cfg,
		history: stats.NewBounded[float64](cfg.HistoryWindow),
	}, nil
}

var _ Operator = (*RunLengthVsHistoryPercentile)(nil)

// Type returns the operator type name.
func (o *RunLengthVsHistoryPercentile) Type() string { return TypeRunLengthVsHistoryPercentile }

// Update advances the run.
func (o *RunLengthVsHistoryPercentile) Update(f domain.Features) bool {
	if !domain.Equal(f[o.cfg.SignalKey], o.cfg.TargetValue) {
		if o.currentRun > 0 {
			o.history.Push(float64(o.currentRun))
		}
		if o.active && o.cfg.PostRunExtension > 0 {
			o.tailRemaining = o.cfg.PostRunExtension
		}
		o.currentRun = 0
		o.active = false
		return o.drainTail()
	}

	o.currentRun++
	o.tailRemaining = 0
	if o.active {
		return true
	}
	if o.history.Len() < o.cfg.MinHistoryRuns {
		return false
	}
	thr, ok := historyPercentile(o.history, o.cfg.Percentile)
	if !ok {
		return false
	}
	if float64(o.currentRun) > thr {
		o.active = true
		return true
	}
	return false
}

// Reset clears the run and history.
func (o *RunLengthVsHistoryPercentile) Reset() {
	o.runState = runState{}
	o.history.Reset()
}

// State exposes current_run and tail_remaining.
func (o *RunLengthVsHistoryPercentile) State() []StateValue { return o.runState.state() }
