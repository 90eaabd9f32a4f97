package hierarchy

import (
	"fmt"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/graph"
	"github.com/ShenglingZHU/hiera-tf/internal/timeframe"
)

// BuildViews creates one live view per series, coarsest first. A series
// with a gating signal gets that node as its signal routine, backed by its
// own stepper. Series without one get a view with no routine, which never
// restricts finer views.
func BuildViews(series []*domain.Series, defs domain.SignalDefs, opts ...graph.Option) ([]*timeframe.View, error) {
	views := make([]*timeframe.View, 0, len(series))
	for _, s := range series {
		cfg := s.Timeframe
		if cfg.Name == "" {
			cfg.Name = s.ID
		}
		if cfg.WindowSize == 0 {
			cfg.WindowSize = 1
		}
		cfg = cfg.WithDefaults()

		var viewOpts []timeframe.Option
		if s.GatingSignalID != "" {
			g, err := graph.Build(s.Signals, defs, opts...)
			if err != nil {
				return nil, fmt.Errorf("series %s: %w", s.ID, err)
			}
			routine, err := g.NewStepper().Routine(s.GatingSignalID)
			if err != nil {
				return nil, fmt.Errorf("series %s: %w", s.ID, err)
			}
			viewOpts = append(viewOpts, timeframe.WithSignal(routine))
		}

		v, err := timeframe.New(cfg, viewOpts...)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.ID, err)
		}
		views = append(views, v)
	}
	return views, nil
}
