package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/graph"
	"github.com/ShenglingZHU/hiera-tf/internal/signal"
)

func gateNode(id, key string) *domain.SignalNode {
	return &domain.SignalNode{
		ID:     id,
		Type:   signal.TypeExternalFlag,
		Params: map[string]any{"signal_key": key, "true_value": "true"},
	}
}

func series(id string, ts []int64, flags []bool, gating string) *domain.Series {
	s := &domain.Series{ID: id, Name: id}
	for i, t := range ts {
		f := domain.Features{"value": float64(i)}
		if flags != nil {
			f["up"] = flags[i]
		}
		s.Points = append(s.Points, domain.Point{TimestampMs: t, Features: f})
	}
	if gating != "" {
		s.Signals = []*domain.SignalNode{gateNode(gating, "up")}
		s.GatingSignalID = gating
	}
	return s
}

func TestCoordinator_OnlyMiddleSeriesGates(t *testing.T) {
	coarse := series("coarse", []int64{0, 6}, nil, "")
	mid := series("mid", []int64{0, 2, 4, 6}, []bool{false, true, true, false}, "g")
	fine := series("fine", []int64{0, 1, 2, 3, 4, 5, 6}, nil, "")

	c := NewCoordinator(graph.NewCache(signal.Defs()))

	windows, ok, err := c.Windows(mid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []domain.Window{{Start: 2, End: 4}}, windows)

	masks, err := c.Masks([]*domain.Series{coarse, mid, fine})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true}, masks["coarse"])
	assert.Equal(t, []bool{true, true, true, true}, masks["mid"])
	assert.Equal(t, []bool{false, false, true, true, true, false, false}, masks["fine"])
}

func TestCoordinator_NeverTrueGateBlocksEverything(t *testing.T) {
	coarse := series("coarse", []int64{0, 10}, []bool{false, false}, "g")
	fine := series("fine", []int64{0, 5, 10}, nil, "")

	masks, err := NewCoordinator(graph.NewCache(signal.Defs())).Masks([]*domain.Series{coarse, fine})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, masks["fine"])
}

func TestCoordinator_MasksCombineLevels(t *testing.T) {
	top := series("top", []int64{0, 10, 20}, []bool{true, true, false}, "g")
	mid := series("mid", []int64{0, 5, 10, 15}, []bool{false, true, true, true}, "g")
	fine := series("fine", []int64{0, 5, 10, 15, 20}, nil, "")

	masks, err := NewCoordinator(graph.NewCache(signal.Defs())).Masks([]*domain.Series{top, mid, fine})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true, true, false}, masks["mid"])
	assert.Equal(t, []bool{false, true, true, false, false}, masks["fine"])
}

func TestCoordinator_MissingGatingNodeIsNonRestrictive(t *testing.T) {
	coarse := series("coarse", []int64{0, 10}, []bool{false, false}, "g")
	coarse.GatingSignalID = "nope"
	fine := series("fine", []int64{0, 5}, nil, "")

	c := NewCoordinator(graph.NewCache(signal.Defs()))
	_, ok, err := c.Windows(coarse)
	require.NoError(t, err)
	assert.False(t, ok)

	masks, err := c.Masks([]*domain.Series{coarse, fine})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, masks["fine"])
}

func TestCoordinator_ConstrainWithExternalFlags(t *testing.T) {
	coarse := series("coarse", []int64{0, 10, 20}, []bool{true, true, false}, "g")
	coarse.DownwardFlags = []bool{true, false, false}
	fine := series("fine", []int64{0, 5, 10, 15, 20}, nil, "")

	con, err := NewCoordinator(graph.NewCache(signal.Defs())).Constrain([]*domain.Series{coarse, fine}, "fine")
	require.NoError(t, err)
	require.Len(t, con.Levels, 1)

	lvl := con.Levels[0]
	assert.Equal(t, "coarse", lvl.Label)
	assert.Equal(t, []bool{true, false, false, false, false}, lvl.External)
	assert.Equal(t, []bool{true, true, true, false, false}, lvl.Calculated)
	assert.Equal(t, []bool{false, true, true, false, false}, lvl.Mismatch())
	assert.Equal(t, []bool{true, false, false, false, false}, con.Mask)
}

func TestCoordinator_ConstrainCoarsest(t *testing.T) {
	coarse := series("coarse", []int64{0, 10}, []bool{false, false}, "g")

	con, err := NewCoordinator(graph.NewCache(signal.Defs())).Constrain([]*domain.Series{coarse}, "coarse")
	require.NoError(t, err)
	assert.Empty(t, con.Levels)
	assert.Equal(t, []bool{true, true}, con.Mask)
}

func TestCoordinator_ConstrainUnknownSeries(t *testing.T) {
	_, err := NewCoordinator(graph.NewCache(signal.Defs())).Constrain(nil, "missing")
	assert.ErrorIs(t, err, ErrUnknownSeries)
}

func TestCoordinator_CycleInGatingForest(t *testing.T) {
	self := &domain.SignalNode{ID: "g", Type: signal.TypeRunLengthReached}
	self.Children = map[string][]*domain.SignalNode{"signal_key": {{ID: "g"}}}
	coarse := series("coarse", []int64{0}, nil, "")
	coarse.Signals = []*domain.SignalNode{self}
	coarse.GatingSignalID = "g"

	_, err := NewCoordinator(graph.NewCache(signal.Defs())).Masks([]*domain.Series{coarse})
	assert.ErrorIs(t, err, graph.ErrCycle)
}
