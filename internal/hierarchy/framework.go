package hierarchy

import (
	"github.com/rs/zerolog"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/timeframe"
)

// GateRecorder receives per-step gate decisions.
type GateRecorder interface {
	GateDecision(view string, allowed bool)
}

type nopGateRecorder struct{}

func (nopGateRecorder) GateDecision(string, bool) {}

// ViewState is one view's outcome for a step.
type ViewState struct {
	Name      string
	Role      domain.Role
	Features  domain.Features
	Raw       bool
	HasSignal bool

	// Allowed is true iff every strictly coarser view with a signal routine reports true.
	Allowed bool

	// Gated is Raw masked by Allowed.
	Gated bool
}

// Framework fans live points out to views ordered coarse to fine and gates
// each view's signal by the views above it. Not safe for concurrent use.
type Framework struct {
	views    []*timeframe.View
	log      zerolog.Logger
	recorder GateRecorder
	last     []ViewState
}

// FrameworkOption configures a Framework.
type FrameworkOption func(*Framework)

// WithFrameworkLogger sets the logger.
func WithFrameworkLogger(l zerolog.Logger) FrameworkOption {
	return func(f *Framework) { f.log = l }
}

// WithGateRecorder sets the gate decision recorder.
func WithGateRecorder(r GateRecorder) FrameworkOption {
	return func(f *Framework) {
		if r != nil {
			f.recorder = r
		}
	}
}

// NewFramework creates a framework over views, coarsest first.
func NewFramework(views []*timeframe.View, opts ...FrameworkOption) *Framework {
	f := &Framework{
		views:    views,
		log:      zerolog.Nop(),
		recorder: nopGateRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Views returns the views, coarsest first.
func (f *Framework) Views() []*timeframe.View { return f.views }

// OnNewPoint pushes p into every view, then gates each view's signal.
func (f *Framework) OnNewPoint(p domain.Point) []ViewState {
	states := make([]ViewState, len(f.views))
	for i, v := range f.views {
		raw, has := v.OnNewPoint(p)
		states[i] = ViewState{
			Name:      v.Name(),
			Role:      v.Role(),
			Features:  v.Features(),
			Raw:       raw,
			HasSignal: has,
		}
	}

	allowed := true
	for i := range states {
		states[i].Allowed = allowed
		states[i].Gated = states[i].Raw && allowed
		f.recorder.GateDecision(states[i].Name, allowed)
		if states[i].HasSignal && !states[i].Raw {
			allowed = false
		}
	}

	f.log.Debug().
		Int64("ts", p.TimestampMs).
		Int("views", len(states)).
		Msg("framework step")
	f.last = states
	return states
}

// Last returns the states of the most recent step.
func (f *Framework) Last() []ViewState { return f.last }

// Reset resets every view.
func (f *Framework) Reset() {
	for _, v := range f.views {
		v.Reset()
	}
	f.last = nil
}
