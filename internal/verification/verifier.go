// Package verification checks that signal evaluation is deterministic: a
// series evaluated twice with fresh operators, and a timeframe view replayed
// after a reset, must produce identical outputs.
package verification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// Check names the comparison a divergence came from.
type Check string

const (
	// CheckRerun compares two batch evaluations with fresh operators.
	CheckRerun Check = "rerun"
	// CheckViewReset compares a view replay with a replay after Reset.
	CheckViewReset Check = "view_reset"
	// CheckViewBatch compares a view replay with the batch evaluation.
	CheckViewBatch Check = "view_batch"
)

// Divergence is the first step at which two output sequences of a node differ.
type Divergence struct {
	Check    Check
	NodeID   string
	Step     int  // -1 when the sequences differ in length
	Expected bool // first sequence
	Actual   bool // second sequence
}

// NodeResult is the outcome for one node of a series.
type NodeResult struct {
	NodeID string
	Hash   string // fingerprint of the first evaluation
	Match  bool
}

// SeriesResult contains the result of verifying one series.
type SeriesResult struct {
	SeriesID    string
	PointsHash  string
	ViewNodeID  string // node replayed through a view, empty when none
	Nodes       []NodeResult
	Divergences []Divergence
	Match       bool
}

// Report contains results for batch verification.
type Report struct {
	ID              uuid.UUID
	GeneratedAt     time.Time
	TotalSeries     int
	MatchedSeries   int
	DivergentSeries int
	TotalNodes      int
	MatchedNodes    int
	DivergentNodes  int
	Results         []SeriesResult
	Errors          map[string]string // series id -> error
}

// Verifier verifies evaluation determinism.
type Verifier interface {
	// VerifySeries evaluates s repeatedly and compares every node's outputs.
	VerifySeries(ctx context.Context, s *domain.Series) (*SeriesResult, error)

	// VerifyAll verifies every series. Per-series errors are recorded in the report.
	VerifyAll(ctx context.Context, series []*domain.Series) (*Report, error)
}

// CompareOutputs returns the first divergence between two output sequences
// of a node, or nil when they are identical.
func CompareOutputs(check Check, nodeID string, expected, actual []bool) *Divergence {
	if len(expected) != len(actual) {
		return &Divergence{Check: check, NodeID: nodeID, Step: -1}
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return &Divergence{
				Check:    check,
				NodeID:   nodeID,
				Step:     i,
				Expected: expected[i],
				Actual:   actual[i],
			}
		}
	}
	return nil
}
