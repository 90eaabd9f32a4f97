// Package hierarchy combines the active windows of coarser timeframes into
// admission masks for finer ones, in batch over whole series and per step
// over live views. A coarser timeframe without a gating signal imposes no
// restriction in either mode.
package hierarchy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/graph"
)

// Level is the restriction one coarser series imposes on a target, as masks
// over the target's timestamps. A nil mask means that source is absent.
type Level struct {
	SeriesID string
	Label    string

	// External comes from the series' supplied downward flags.
	External []bool

	// Calculated comes from the windows of the series' gating signal.
	Calculated []bool
}

// Effective is the AND of the present masks, nil when neither is present.
func (l Level) Effective() []bool {
	switch {
	case l.External != nil && l.Calculated != nil:
		out := append([]bool(nil), l.External...)
		and(out, l.Calculated)
		return out
	case l.External != nil:
		return l.External
	default:
		return l.Calculated
	}
}

// Mismatch marks timestamps where the external and calculated masks disagree.
// Nil unless both are present.
func (l Level) Mismatch() []bool {
	if l.External == nil || l.Calculated == nil {
		return nil
	}
	out := make([]bool, len(l.External))
	for i := range out {
		out[i] = l.External[i] != l.Calculated[i]
	}
	return out
}

// Constraint is the full restriction on one target series.
type Constraint struct {
	SeriesID string

	// Levels holds one entry per strictly coarser series, coarsest first.
	Levels []Level

	// Mask is the AND of every level's effective mask.
	Mask []bool
}

// sourceWindows holds the windows a series exposes to finer series.
type sourceWindows struct {
	calculated    []domain.Window
	hasCalculated bool
	external      []domain.Window
	hasExternal   bool
}

// Coordinator builds masks from series ordered coarse to fine. Gating
// outputs come from the shared cache; callers own its invalidation.
type Coordinator struct {
	cache *graph.Cache
	log   zerolog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(l zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.log = l }
}

// NewCoordinator creates a coordinator reading gating outputs from cache.
func NewCoordinator(cache *graph.Cache, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{cache: cache, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Windows returns the windows of s's gating signal. The second result is
// false when s has no gating signal or it cannot be resolved.
func (c *Coordinator) Windows(s *domain.Series) ([]domain.Window, bool, error) {
	src, err := c.sourceWindows(s)
	if err != nil {
		return nil, false, err
	}
	return src.calculated, src.hasCalculated, nil
}

func (c *Coordinator) sourceWindows(s *domain.Series) (sourceWindows, error) {
	var src sourceWindows
	ts := s.Timestamps()

	if s.DownwardFlags != nil && len(ts) > 0 {
		src.external = TruthyWindows(NormalizeFlags(s.DownwardFlags, len(ts)), ts)
		src.hasExternal = true
	}

	if s.GatingSignalID == "" || len(ts) == 0 {
		return src, nil
	}
	outputs, err := c.cache.Outputs(s)
	if err != nil {
		return src, fmt.Errorf("gating signal of %s: %w", s.ID, err)
	}
	flags, ok := outputs[s.GatingSignalID]
	if !ok || len(flags) == 0 {
		c.log.Warn().
			Str("series", s.ID).
			Str("node_id", s.GatingSignalID).
			Msg("gating signal not found, series imposes no restriction")
		return src, nil
	}
	src.calculated = TruthyWindows(NormalizeFlags(flags, len(ts)), ts)
	src.hasCalculated = true
	return src, nil
}

func (c *Coordinator) allWindows(series []*domain.Series) ([]sourceWindows, error) {
	out := make([]sourceWindows, len(series))
	for i, s := range series {
		src, err := c.sourceWindows(s)
		if err != nil {
			return nil, err
		}
		out[i] = src
	}
	return out, nil
}

func levelFor(s *domain.Series, src sourceWindows, ts []int64) Level {
	l := Level{SeriesID: s.ID, Label: s.Label()}
	if src.hasExternal {
		l.External = MapWindowsToMask(src.external, ts)
	}
	if src.hasCalculated {
		l.Calculated = MapWindowsToMask(src.calculated, ts)
	}
	return l
}

// Masks returns one mask per series id. Each mask is the AND, over every
// strictly coarser series exposing windows, of membership in those windows.
// A series with nothing restricting it gets an all-true mask.
func (c *Coordinator) Masks(series []*domain.Series) (map[string][]bool, error) {
	srcs, err := c.allWindows(series)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]bool, len(series))
	for i, s := range series {
		ts := s.Timestamps()
		mask := allTrue(len(ts))
		for j := 0; j < i; j++ {
			if eff := levelFor(series[j], srcs[j], ts).Effective(); eff != nil {
				and(mask, eff)
			}
		}
		out[s.ID] = mask
	}
	return out, nil
}

// Constrain returns the per-level breakdown and final mask of the series
// with targetID.
func (c *Coordinator) Constrain(series []*domain.Series, targetID string) (*Constraint, error) {
	target := -1
	for i, s := range series {
		if s.ID == targetID {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSeries, targetID)
	}

	srcs, err := c.allWindows(series[:target])
	if err != nil {
		return nil, err
	}

	ts := series[target].Timestamps()
	con := &Constraint{SeriesID: targetID, Mask: allTrue(len(ts))}
	for j, src := range srcs {
		l := levelFor(series[j], src, ts)
		if eff := l.Effective(); eff != nil {
			and(con.Mask, eff)
		}
		con.Levels = append(con.Levels, l)
	}
	return con, nil
}
