package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/graph"
	"github.com/ShenglingZHU/hiera-tf/internal/idhash"
	"github.com/ShenglingZHU/hiera-tf/internal/storage"
	"github.com/ShenglingZHU/hiera-tf/internal/timeframe"
)

// ReplayVerifier implements Verifier by replaying series points.
type ReplayVerifier struct {
	defs  domain.SignalDefs
	store storage.PointStore // optional source for series without inline points
	log   zerolog.Logger
	now   func() time.Time
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	Defs domain.SignalDefs

	// Store supplies points for series declared without inline points. Optional.
	Store  storage.PointStore
	Logger *zerolog.Logger
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	v := &ReplayVerifier{
		defs:  opts.Defs,
		store: opts.Store,
		log:   zerolog.Nop(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	if opts.Logger != nil {
		v.log = *opts.Logger
	}
	return v
}

// WithClock sets a custom clock function for deterministic output.
func (v *ReplayVerifier) WithClock(now func() time.Time) *ReplayVerifier {
	v.now = now
	return v
}

// VerifySeries evaluates s twice with fresh operators, then replays it
// through a timeframe view twice with a reset in between.
func (v *ReplayVerifier) VerifySeries(ctx context.Context, s *domain.Series) (*SeriesResult, error) {
	points, err := v.points(ctx, s)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(s.Signals, v.defs, graph.WithLogger(v.log))
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", s.ID, err)
	}

	first := g.Evaluate(points)
	second := g.Evaluate(points)

	res := &SeriesResult{
		SeriesID:   s.ID,
		PointsHash: idhash.ComputePointsHash(points),
		Nodes:      make([]NodeResult, 0, len(first.Order)),
	}

	divergent := make(map[string]bool)
	for _, id := range first.Order {
		h1 := idhash.ComputeOutputHash(s.ID, id, first.Outputs[id])
		h2 := idhash.ComputeOutputHash(s.ID, id, second.Outputs[id])
		if h1 != h2 {
			divergent[id] = true
			if d := CompareOutputs(CheckRerun, id, first.Outputs[id], second.Outputs[id]); d != nil {
				res.Divergences = append(res.Divergences, *d)
			}
		}
		res.Nodes = append(res.Nodes, NodeResult{NodeID: id, Hash: h1})
	}

	if viewID := viewNode(s, first.Order); viewID != "" {
		res.ViewNodeID = viewID
		divs, err := v.replayView(s, g, viewID, points, first.Outputs[viewID])
		if err != nil {
			return nil, err
		}
		for _, d := range divs {
			divergent[d.NodeID] = true
			res.Divergences = append(res.Divergences, d)
		}
	}

	for i := range res.Nodes {
		res.Nodes[i].Match = !divergent[res.Nodes[i].NodeID]
	}
	res.Match = len(res.Divergences) == 0

	v.log.Debug().
		Str("series", s.ID).
		Int("nodes", len(res.Nodes)).
		Int("divergences", len(res.Divergences)).
		Msg("series verified")
	return res, nil
}

// VerifyAll verifies every series.
func (v *ReplayVerifier) VerifyAll(ctx context.Context, series []*domain.Series) (*Report, error) {
	report := &Report{
		ID:          uuid.New(),
		GeneratedAt: v.now(),
		TotalSeries: len(series),
		Results:     make([]SeriesResult, 0, len(series)),
		Errors:      make(map[string]string),
	}

	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := v.VerifySeries(ctx, s)
		if err != nil {
			// Record error as divergence
			report.Errors[s.ID] = err.Error()
			report.DivergentSeries++
			v.log.Warn().Err(err).Str("series", s.ID).Msg("verification failed")
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedSeries++
		} else {
			report.DivergentSeries++
		}
		for _, n := range result.Nodes {
			report.TotalNodes++
			if n.Match {
				report.MatchedNodes++
			} else {
				report.DivergentNodes++
			}
		}
	}

	v.log.Info().
		Str("report_id", report.ID.String()).
		Int("series", report.TotalSeries).
		Int("divergent_series", report.DivergentSeries).
		Msg("verification finished")
	return report, nil
}

func (v *ReplayVerifier) points(ctx context.Context, s *domain.Series) ([]domain.Point, error) {
	if len(s.Points) > 0 || v.store == nil {
		return s.Points, nil
	}
	points, err := v.store.GetBySeries(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("load series %s: %w", s.ID, err)
	}
	return points, nil
}

// viewNode picks the gating node when set, else the last node in evaluation order.
func viewNode(s *domain.Series, order []string) string {
	if s.GatingSignalID != "" {
		for _, id := range order {
			if id == s.GatingSignalID {
				return id
			}
		}
	}
	if len(order) == 0 {
		return ""
	}
	return order[len(order)-1]
}

func (v *ReplayVerifier) replayView(s *domain.Series, g *graph.Graph, nodeID string, points []domain.Point, batch []bool) ([]Divergence, error) {
	routine, err := g.NewStepper().Routine(nodeID)
	if err != nil {
		return nil, err
	}

	cfg := s.Timeframe.WithDefaults()
	if cfg.Name == "" {
		cfg.Name = s.Label()
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 1
	}
	view, err := timeframe.New(cfg, timeframe.WithSignal(routine))
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", s.ID, err)
	}

	replay := func() []bool {
		out := make([]bool, len(points))
		for i, p := range points {
			out[i], _ = view.OnNewPoint(p)
		}
		return out
	}

	firstPass := replay()
	view.Reset()
	secondPass := replay()

	var divs []Divergence
	if d := CompareOutputs(CheckViewReset, nodeID, firstPass, secondPass); d != nil {
		divs = append(divs, *d)
	}
	if d := CompareOutputs(CheckViewBatch, nodeID, batch, firstPass); d != nil {
		divs = append(divs, *d)
	}
	return divs, nil
}
