package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/graph"
	"github.com/ShenglingZHU/hiera-tf/internal/signal"
)

const minute = int64(60_000)

func flag(id, key string) *domain.SignalNode {
	return &domain.SignalNode{
		ID:     id,
		Type:   signal.TypeExternalFlag,
		Params: map[string]any{"signal_key": key, "true_value": "true"},
	}
}

func flagSeries(step int64, key string, flags ...bool) []domain.Point {
	points := make([]domain.Point, len(flags))
	for i, f := range flags {
		points[i] = domain.Point{TimestampMs: int64(i) * step, Features: domain.Features{key: f}}
	}
	return points
}

func setupSeries() []*domain.Series {
	coarse := &domain.Series{
		ID:             "coarse",
		Name:           "Coarse",
		Timeframe:      domain.TimeframeConfig{Name: "2m", Role: domain.RoleHTF},
		Points:         flagSeries(2*minute, "up", false, true, true),
		GatingSignalID: "g",
		Signals: []*domain.SignalNode{
			flag("g", "up"),
			{
				ID:     "ema",
				Type:   signal.TypeEMAFastSlowComparison,
				Params: map[string]any{"ema_period_1": 3, "ema_period_2": 3},
			},
		},
	}
	fine := &domain.Series{
		ID:        "fine",
		Timeframe: domain.TimeframeConfig{Name: "1m", Role: domain.RoleLTF},
		Points:    flagSeries(minute, "x", true, true, true, false, true),
		Signals:   []*domain.SignalNode{flag("f", "x")},
	}
	return []*domain.Series{coarse, fine}
}

func findNode(t *testing.T, s SeriesSummary, id string) NodeRow {
	t.Helper()
	for _, n := range s.Nodes {
		if n.NodeID == id {
			return n
		}
	}
	t.Fatalf("node %s not in summary of %s", id, s.SeriesID)
	return NodeRow{}
}

func newTestGenerator() *Generator {
	fixed := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	cache := graph.NewCache(signal.Defs())
	return NewGenerator(signal.Defs(), cache, zerolog.Nop()).WithClock(func() time.Time { return fixed })
}

func TestGenerate_Summaries(t *testing.T) {
	report, err := newTestGenerator().Generate(setupSeries())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if report.SeriesCount != 2 || report.NodeCount != 3 {
		t.Errorf("expected 2 series and 3 nodes, got %d and %d", report.SeriesCount, report.NodeCount)
	}
	if report.ID.String() == "" {
		t.Error("expected report id")
	}

	coarse := report.Series[0]
	if coarse.Label != "Coarse" || coarse.Points != 3 {
		t.Errorf("unexpected coarse summary %+v", coarse)
	}
	if coarse.RangeStart != 0 || coarse.RangeEnd != 4*minute {
		t.Errorf("expected range [0, %d], got [%d, %d]", 4*minute, coarse.RangeStart, coarse.RangeEnd)
	}
	if coarse.MaskAllowed != 3 {
		t.Errorf("expected coarsest series fully admitted, got %d", coarse.MaskAllowed)
	}
	if len(coarse.Windows) != 1 || coarse.Windows[0] != (domain.Window{Start: 2 * minute, End: 4 * minute}) {
		t.Errorf("unexpected windows %v", coarse.Windows)
	}
	if g := findNode(t, coarse, "g"); g.TrueCount != 2 || g.GatedTrue != 2 {
		t.Errorf("expected g true 2 gated 2, got %+v", g)
	}
	if len(coarse.Failures) != 1 || coarse.Failures[0].NodeID != "ema" {
		t.Errorf("expected ema failure, got %v", coarse.Failures)
	}

	fine := report.Series[1]
	if fine.MaskAllowed != 3 {
		t.Errorf("expected 3 admitted fine points, got %d", fine.MaskAllowed)
	}
	if fine.Windows != nil {
		t.Errorf("expected no windows for ungated series, got %v", fine.Windows)
	}
	f := findNode(t, fine, "f")
	if f.TrueCount != 4 || f.GatedTrue != 2 {
		t.Errorf("expected f true 4 gated 2, got %+v", f)
	}
	if f.TrueRate != 0.8 {
		t.Errorf("expected rate 0.8, got %f", f.TrueRate)
	}
}

func TestGenerate_CycleFails(t *testing.T) {
	loop := &domain.SignalNode{ID: "loop", Type: signal.TypeRunLengthReached}
	loop.Children = map[string][]*domain.SignalNode{"signal_key": {{ID: "loop"}}}

	series := []*domain.Series{{ID: "s", Points: flagSeries(minute, "x", true), Signals: []*domain.SignalNode{loop}}}
	if _, err := newTestGenerator().Generate(series); err == nil {
		t.Error("expected error for cyclic forest")
	}
}

func TestRenderMarkdown(t *testing.T) {
	report, err := newTestGenerator().Generate(setupSeries())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Evaluation Report",
		"Generated: 2024-01-15T12:00:00Z",
		"## Coarse",
		"| Mask Coverage | 3/5 (60.00%) |",
		"### Gating Windows (g)",
		"| 120000 | 240000 |",
		"| f | SignalExternalFlag | SignalExternalFlag | 4 | 2 | 0.8000 |",
		"### Operator Failures",
		"- ema:",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	report, err := newTestGenerator().Generate(setupSeries())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(RenderCSV(report)), "\n")

	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "series_id,node_id,type") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[3] != "fine,f,SignalExternalFlag,SignalExternalFlag,5,4,2,0.800000,3,false" {
		t.Errorf("unexpected fine row %q", lines[3])
	}
}
