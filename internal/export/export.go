// Package export replays one signal of a series into a table: time
// columns, the hierarchical constraint breakdown, dependency outputs, the
// signal itself raw and gated, and operator state values.
package export

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/graph"
	"github.com/ShenglingZHU/hiera-tf/internal/hierarchy"
)

// Request selects the signal to export and the optional column groups.
type Request struct {
	SeriesID string
	Type     string
	// Alias defaults to Type.
	Alias string

	Dependencies bool
	Values       bool
	Hierarchy    bool
}

func (r Request) alias() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Type
}

// Exporter renders signal tables over an ordered series list.
type Exporter struct {
	defs  domain.SignalDefs
	coord *hierarchy.Coordinator
	log   zerolog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Exporter) { e.log = l }
}

// New creates an exporter. Coarser series outputs come from cache.
func New(defs domain.SignalDefs, cache *graph.Cache, opts ...Option) *Exporter {
	e := &Exporter{defs: defs, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	e.coord = hierarchy.NewCoordinator(cache, hierarchy.WithCoordinatorLogger(e.log))
	return e
}

// Signal renders the table for req. series must be ordered coarse to fine.
func (e *Exporter) Signal(series []*domain.Series, req Request) (*Table, error) {
	var target *domain.Series
	for _, s := range series {
		if s.ID == req.SeriesID {
			target = s
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %q", hierarchy.ErrUnknownSeries, req.SeriesID)
	}

	full, err := graph.Build(target.Signals, e.defs, graph.WithLogger(e.log))
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", target.ID, err)
	}
	node, err := findNode(full, req.Type, req.alias())
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", target.ID, err)
	}

	deps, err := full.Dependencies(node.ID)
	if err != nil {
		return nil, err
	}

	var evalOpts []graph.EvalOption
	if req.Values {
		evalOpts = append(evalOpts, graph.WithStates())
	}
	res := full.Evaluate(target.Points, evalOpts...)

	b := newBuilder(len(target.Points))
	b.addTime(target.Timestamps())

	var mask []bool
	if req.Hierarchy {
		con, err := e.coord.Constrain(series, target.ID)
		if err != nil {
			return nil, err
		}
		addConstraint(b, con)
		mask = con.Mask
	}

	if req.Dependencies {
		for _, id := range deps {
			dep, _ := full.Node(id)
			if !b.add(dep.Label(), flagCells(res.Outputs[id])) {
				e.log.Debug().Str("column", dep.Label()).Str("node_id", id).Msg("duplicate dependency column skipped")
			}
		}
	}

	raw := res.Outputs[node.ID]
	alias := req.alias()
	if mask != nil {
		gated := make([]bool, len(raw))
		for i := range raw {
			gated[i] = raw[i] && mask[i]
		}
		b.add(alias+"_raw", flagCells(raw))
		b.add(alias+"_gated", flagCells(gated))
	} else {
		b.add(alias, flagCells(raw))
	}

	if req.Values {
		for _, id := range append(deps, node.ID) {
			n, _ := full.Node(id)
			for _, col := range res.States[id] {
				cells := make([]string, len(col.Values))
				for i, v := range col.Values {
					if col.Valid[i] {
						cells[i] = formatFloat(v)
					}
				}
				b.add(n.Label()+"_"+col.Name, cells)
			}
		}
	}

	e.log.Debug().
		Str("series", target.ID).
		Str("node_id", node.ID).
		Int("rows", len(target.Points)).
		Int("columns", len(b.header)).
		Msg("signal exported")
	return b.table(), nil
}

func addConstraint(b *builder, con *hierarchy.Constraint) {
	for _, l := range con.Levels {
		if l.External != nil {
			b.add("hierar_constraint_ext_"+l.Label, flagCells(l.External))
		}
		if l.Calculated != nil {
			b.add("hierar_constraint_calc_"+l.Label, flagCells(l.Calculated))
		}
		if m := l.Mismatch(); m != nil {
			b.add("hierar_constraint_mismatch_"+l.Label, flagCells(m))
		}
	}
	b.add("hierar_constraint_all", flagCells(con.Mask))
}

func findNode(g *graph.Graph, typ, alias string) (*domain.SignalNode, error) {
	var found *domain.SignalNode
	for _, n := range g.Nodes() {
		if n.Type != typ || n.Label() != alias {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s/%s (%s, %s)", ErrAmbiguousSignal, typ, alias, found.ID, n.ID)
		}
		found = n
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrSignalNotFound, typ, alias)
	}
	return found, nil
}
