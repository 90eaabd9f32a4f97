package reporting

import (
	"time"

	"github.com/google/uuid"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// Report summarizes one evaluation run over a workspace.
type Report struct {
	// Metadata
	ID          uuid.UUID
	GeneratedAt time.Time
	SeriesCount int
	NodeCount   int

	// Series summaries, coarsest first
	Series []SeriesSummary
}

// SeriesSummary describes one series' evaluation.
type SeriesSummary struct {
	SeriesID   string
	Label      string
	Timeframe  string
	Role       domain.Role
	Points     int
	RangeStart int64 // Unix ms
	RangeEnd   int64 // Unix ms

	// Gating
	GatingNodeID string
	Windows      []domain.Window
	MaskAllowed  int // points admitted by coarser series

	// Nodes in evaluation order
	Nodes []NodeRow

	// Failures sorted by node id
	Failures []FailureRow
}

// NodeRow is one node's output summary.
type NodeRow struct {
	NodeID    string
	Type      string
	Label     string
	TrueCount int
	GatedTrue int // true and admitted by the series mask
	TrueRate  float64
}

// FailureRow is one operator construction failure.
type FailureRow struct {
	NodeID string
	Error  string
}

// MaskCoverage returns the admitted share of points, or 0 for an empty series.
func (s SeriesSummary) MaskCoverage() float64 {
	if s.Points == 0 {
		return 0
	}
	return float64(s.MaskAllowed) / float64(s.Points)
}
