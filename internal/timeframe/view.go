// Package timeframe implements the per-granularity view: a bounded point
// buffer, a feature routine over the most recent window and an optional
// signal routine over those features.
package timeframe

import (
	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/stats"
)

// FeatureModule computes a feature mapping from a window of points,
// oldest first. The window must not be retained.
type FeatureModule interface {
	Compute(window []domain.Point) domain.Features
}

// FeatureFunc adapts a function to FeatureModule.
type FeatureFunc func(window []domain.Point) domain.Features

// Compute calls fn.
func (fn FeatureFunc) Compute(window []domain.Point) domain.Features { return fn(window) }

// SignalRoutine derives the view's signal from its current features.
type SignalRoutine interface {
	Signal(f domain.Features) bool
}

// SignalFunc adapts a function to SignalRoutine.
type SignalFunc func(f domain.Features) bool

// Signal calls fn.
func (fn SignalFunc) Signal(f domain.Features) bool { return fn(f) }

// resetter is implemented by routines carrying state across points.
type resetter interface {
	Reset()
}

// Option configures a View.
type Option func(*View)

// WithFeatures sets the feature routine. The default echoes the newest point.
func WithFeatures(m FeatureModule) Option {
	return func(v *View) { v.features = m }
}

// WithSignal sets the signal routine.
func WithSignal(r SignalRoutine) Option {
	return func(v *View) { v.signal = r }
}

// View is one timeframe's rolling state. Not safe for concurrent use.
type View struct {
	cfg      domain.TimeframeConfig
	buffer   *stats.Bounded[domain.Point]
	features FeatureModule
	signal   SignalRoutine

	lastFeatures domain.Features
	lastSignal   bool
	hasSignal    bool
}

// New creates a view. cfg is validated.
func New(cfg domain.TimeframeConfig, opts ...Option) (*View, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v := &View{
		cfg:          cfg,
		buffer:       stats.NewBounded[domain.Point](cfg.MaxBuffer),
		features:     LastPointEcho(),
		lastFeatures: domain.Features{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Name returns the timeframe name.
func (v *View) Name() string { return v.cfg.Name }

// Role returns the timeframe role.
func (v *View) Role() domain.Role { return v.cfg.Role }

// Config returns the view's configuration.
func (v *View) Config() domain.TimeframeConfig { return v.cfg }

// HasSignal reports whether a signal routine is configured.
func (v *View) HasSignal() bool { return v.signal != nil }

// OnNewPoint appends a copy of p, evicting the oldest point past MaxBuffer,
// then recomputes features and signal. The second result is false when no
// signal routine is configured.
func (v *View) OnNewPoint(p domain.Point) (bool, bool) {
	v.buffer.Push(p.Clone())

	feats := v.features.Compute(v.Window())
	if feats == nil {
		feats = domain.Features{}
	}
	v.lastFeatures = feats

	if v.signal == nil {
		v.lastSignal, v.hasSignal = false, false
		return false, false
	}
	v.lastSignal, v.hasSignal = v.signal.Signal(feats), true
	return v.lastSignal, true
}

// Window returns the last WindowSize points, or all when fewer are buffered.
// The slice aliases the buffer and must not be retained.
func (v *View) Window() []domain.Point {
	items := v.buffer.View()
	if len(items) <= v.cfg.WindowSize {
		return items
	}
	return items[len(items)-v.cfg.WindowSize:]
}

// Buffer returns a copy of the buffered points, oldest first.
func (v *View) Buffer() []domain.Point {
	return v.buffer.Items()
}

// BufferSize returns the number of buffered points.
func (v *View) BufferSize() int { return v.buffer.Len() }

// IsWarm reports whether at least WindowSize points are buffered.
func (v *View) IsWarm() bool { return v.buffer.Len() >= v.cfg.WindowSize }

// Features returns the most recently computed features.
func (v *View) Features() domain.Features { return v.lastFeatures }

// Signal returns the most recent signal. The second result is false before
// the first point or when no signal routine is configured.
func (v *View) Signal() (bool, bool) { return v.lastSignal, v.hasSignal }

// Reset empties the buffer and clears features and signal. Routines carrying
// state are reset too, so replaying the same points reproduces the same output.
func (v *View) Reset() {
	v.buffer.Reset()
	v.lastFeatures = domain.Features{}
	v.lastSignal, v.hasSignal = false, false
	if r, ok := v.features.(resetter); ok {
		r.Reset()
	}
	if r, ok := v.signal.(resetter); ok {
		r.Reset()
	}
}
