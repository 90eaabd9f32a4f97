// Package replay feeds stored points back through an engine in a
// deterministic order.
package replay

import (
	"context"
	"fmt"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/storage"
)

// Runner loads points from storage and replays them in deterministic order.
type Runner struct {
	store storage.PointStore
}

// NewRunner creates a new replay runner.
func NewRunner(store storage.PointStore) *Runner {
	return &Runner{store: store}
}

// Run loads the points of every series within [from, to] and replays them
// through the engine. seriesIDs should be ordered coarsest first.
func (r *Runner) Run(ctx context.Context, seriesIDs []string, from, to int64, engine ReplayEngine) error {
	if from > to {
		return fmt.Errorf("%w: from %d after to %d", ErrInvalidRange, from, to)
	}
	return r.replay(ctx, seriesIDs, engine, func(id string) ([]domain.Point, error) {
		return r.store.GetByTimeRange(ctx, id, from, to)
	})
}

// RunAll loads all points of every series and replays them through the engine.
func (r *Runner) RunAll(ctx context.Context, seriesIDs []string, engine ReplayEngine) error {
	return r.replay(ctx, seriesIDs, engine, func(id string) ([]domain.Point, error) {
		return r.store.GetBySeries(ctx, id)
	})
}

func (r *Runner) replay(ctx context.Context, seriesIDs []string, engine ReplayEngine, load func(string) ([]domain.Point, error)) error {
	seen := make(map[string]struct{}, len(seriesIDs))
	for _, id := range seriesIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: series %s listed twice", ErrInvalidOrdering, id)
		}
		seen[id] = struct{}{}
	}

	points := make([][]domain.Point, len(seriesIDs))
	for i, id := range seriesIDs {
		ps, err := load(id)
		if err != nil {
			return fmt.Errorf("load series %s: %w", id, err)
		}
		points[i] = ps
	}

	// Merge and sort events
	events := MergeEvents(seriesIDs, points)

	// Replay through engine
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := engine.OnEvent(ctx, event); err != nil {
			return err
		}
	}

	return nil
}
