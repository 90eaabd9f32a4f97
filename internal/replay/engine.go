package replay

import (
	"context"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// Event is one stored point of one series.
type Event struct {
	SeriesID string
	Order    int // position of the series in the run's series list
	Seq      int // position of the point within its series
	domain.Point
}

// ReplayEngine processes events in deterministic order.
type ReplayEngine interface {
	// OnEvent is called for each event in order.
	// Events are guaranteed to be ordered by (timestamp, series order, seq).
	OnEvent(ctx context.Context, event *Event) error
}

// EngineFunc adapts a function to ReplayEngine.
type EngineFunc func(ctx context.Context, event *Event) error

// OnEvent calls fn.
func (fn EngineFunc) OnEvent(ctx context.Context, event *Event) error { return fn(ctx, event) }
