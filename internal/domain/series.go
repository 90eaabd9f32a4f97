package domain

// Series is one timeframe's point sequence together with its signal forest.
type Series struct {
	ID        string
	Name      string
	Timeframe TimeframeConfig
	Points    []Point
	Signals   []*SignalNode

	// GatingSignalID names the node whose windows restrict finer series. Empty imposes no restriction.
	GatingSignalID string

	// DownwardFlags is an externally supplied gate column aligned with Points. Nil when absent.
	DownwardFlags []bool
}

// Label returns the name, or the id when unnamed.
func (s *Series) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Timestamps returns the timestamp column of the series.
func (s *Series) Timestamps() []int64 {
	return Timestamps(s.Points)
}
