package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/graph"
	"github.com/ShenglingZHU/hiera-tf/internal/hierarchy"
)

// Generator produces reports from evaluated series.
type Generator struct {
	defs  domain.SignalDefs
	cache *graph.Cache
	coord *hierarchy.Coordinator
	log   zerolog.Logger
	now   func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator sharing cache with other callers.
func NewGenerator(defs domain.SignalDefs, cache *graph.Cache, log zerolog.Logger) *Generator {
	return &Generator{
		defs:  defs,
		cache: cache,
		coord: hierarchy.NewCoordinator(cache, hierarchy.WithCoordinatorLogger(log)),
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate evaluates every series and summarizes outputs, windows and masks.
// series must be ordered coarsest first.
func (g *Generator) Generate(series []*domain.Series) (*Report, error) {
	masks, err := g.coord.Masks(series)
	if err != nil {
		return nil, fmt.Errorf("build masks: %w", err)
	}

	report := &Report{
		ID:          uuid.New(),
		GeneratedAt: g.now(),
		SeriesCount: len(series),
	}

	for _, s := range series {
		summary, err := g.summarize(s, masks[s.ID])
		if err != nil {
			return nil, err
		}
		report.NodeCount += len(summary.Nodes)
		report.Series = append(report.Series, *summary)
	}

	g.log.Info().
		Str("report_id", report.ID.String()).
		Int("series", report.SeriesCount).
		Int("nodes", report.NodeCount).
		Msg("evaluation report generated")
	return report, nil
}

func (g *Generator) summarize(s *domain.Series, mask []bool) (*SeriesSummary, error) {
	res, err := g.cache.Result(s)
	if err != nil {
		return nil, err
	}
	gr, err := graph.Build(s.Signals, g.defs)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", s.ID, err)
	}

	summary := &SeriesSummary{
		SeriesID:     s.ID,
		Label:        s.Label(),
		Timeframe:    s.Timeframe.Name,
		Role:         s.Timeframe.Role,
		Points:       len(s.Points),
		GatingNodeID: s.GatingSignalID,
		MaskAllowed:  countTrue(mask),
	}
	if n := len(s.Points); n > 0 {
		summary.RangeStart = s.Points[0].TimestampMs
		summary.RangeEnd = s.Points[n-1].TimestampMs
	}

	windows, ok, err := g.coord.Windows(s)
	if err != nil {
		return nil, err
	}
	if ok {
		summary.Windows = windows
	}

	for _, id := range res.Order {
		decl, err := gr.Node(id)
		if err != nil {
			return nil, err
		}
		out := res.Outputs[id]
		row := NodeRow{
			NodeID:    id,
			Type:      decl.Type,
			Label:     decl.Label(),
			TrueCount: countTrue(out),
			GatedTrue: countGated(out, mask),
		}
		if len(out) > 0 {
			row.TrueRate = float64(row.TrueCount) / float64(len(out))
		}
		summary.Nodes = append(summary.Nodes, row)
	}

	for id, ferr := range res.Failures {
		summary.Failures = append(summary.Failures, FailureRow{NodeID: id, Error: ferr.Error()})
	}
	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].NodeID < summary.Failures[j].NodeID
	})

	return summary, nil
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func countGated(flags, mask []bool) int {
	n := 0
	for i, f := range flags {
		if f && i < len(mask) && mask[i] {
			n++
		}
	}
	return n
}
