package graph

import (
	"fmt"
	"time"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/signal"
)

// StateColumn is one internal-state quantity of a node across steps.
// Valid[i] is false where the quantity was undefined.
type StateColumn struct {
	Name   string
	Values []float64
	Valid  []bool
}

// Result holds one evaluation pass.
type Result struct {
	// Order lists node ids dependencies first.
	Order []string

	// Outputs maps node id to one boolean per point.
	Outputs map[string][]bool

	// States maps node id to its internal-state columns. Only filled when requested.
	States map[string][]StateColumn

	// Failures maps node id to its construction error. Failed nodes output false.
	Failures map[string]error
}

// Stepper evaluates the graph one point at a time with its own operator
// instances. Not safe for concurrent use.
type Stepper struct {
	g        *Graph
	ops      []signal.Operator // by arena index, nil when construction failed
	failures map[string]error
	last     []bool // by arena index
}

// NewStepper constructs fresh operator instances for every node. A node whose
// operator fails to construct is logged and outputs false at every step.
func (g *Graph) NewStepper() *Stepper {
	s := &Stepper{
		g:        g,
		ops:      make([]signal.Operator, len(g.nodes)),
		failures: make(map[string]error),
		last:     make([]bool, len(g.nodes)),
	}

	for i, n := range g.nodes {
		op, err := signal.New(n.decl.Type, operatorParams(n))
		if err != nil {
			s.failures[n.decl.ID] = err
			g.cfg.recorder.OperatorFailed(n.decl.Type)
			g.cfg.log.Warn().
				Err(err).
				Str("node_id", n.decl.ID).
				Str("type", n.decl.Type).
				Msg("operator construction failed, node outputs false")
			continue
		}
		s.ops[i] = op
	}
	return s
}

// operatorParams overlays resolved dependency ids on the declared params.
// An unresolved single dependency is cleared so it reads as permanently false.
func operatorParams(n node) signal.Params {
	p := make(signal.Params, len(n.decl.Params)+len(n.deps))
	for k, v := range n.decl.Params {
		p[k] = v
	}
	for _, d := range n.deps {
		switch {
		case d.list:
			ids := make([]any, len(d.ids))
			for i, id := range d.ids {
				ids[i] = id
			}
			p[d.param] = ids
		case len(d.ids) > 0:
			p[d.param] = d.ids[0]
		default:
			delete(p, d.param)
		}
	}
	return p
}

// Step evaluates every node on features in order. Each node sees features
// plus this step's outputs of its dependencies.
func (s *Stepper) Step(features domain.Features) {
	for i := range s.last {
		s.last[i] = false
	}

	for _, i := range s.g.order {
		op := s.ops[i]
		if op == nil {
			continue
		}
		s.last[i] = op.Update(s.nodeFeatures(i, features))
	}
}

func (s *Stepper) nodeFeatures(i int, base domain.Features) domain.Features {
	n := s.g.nodes[i]
	if len(n.children) == 0 {
		return base
	}
	f := make(domain.Features, len(base)+len(n.children))
	for k, v := range base {
		f[k] = v
	}
	for _, d := range n.deps {
		for _, id := range d.ids {
			j, ok := s.g.index[id]
			f[id] = ok && s.last[j]
		}
	}
	return f
}

// Output returns the most recent output of id.
func (s *Stepper) Output(id string) (bool, error) {
	i, ok := s.g.index[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	return s.last[i], nil
}

// State returns the current internal state of id, nil for failed nodes or
// operators without exported state.
func (s *Stepper) State(id string) []signal.StateValue {
	i, ok := s.g.index[id]
	if !ok || s.ops[i] == nil {
		return nil
	}
	if r, ok := s.ops[i].(signal.StateReporter); ok {
		return r.State()
	}
	return nil
}

// Failures returns the construction error of every failed node by id.
func (s *Stepper) Failures() map[string]error {
	out := make(map[string]error, len(s.failures))
	for k, v := range s.failures {
		out[k] = v
	}
	return out
}

// Reset returns every operator to its constructed state.
func (s *Stepper) Reset() {
	for i, op := range s.ops {
		if op != nil {
			op.Reset()
		}
		s.last[i] = false
	}
}

// NodeSignal exposes one node of a Stepper as a view signal routine.
type NodeSignal struct {
	s *Stepper
	i int
}

// Routine returns a signal routine that steps the whole graph on each call
// and reports id's output.
func (s *Stepper) Routine(id string) (*NodeSignal, error) {
	i, ok := s.g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	return &NodeSignal{s: s, i: i}, nil
}

// Signal steps the graph on f.
func (ns *NodeSignal) Signal(f domain.Features) bool {
	ns.s.Step(f)
	return ns.s.last[ns.i]
}

// Reset resets the underlying stepper.
func (ns *NodeSignal) Reset() { ns.s.Reset() }

// EvalOption configures Evaluate.
type EvalOption func(*evalConfig)

type evalConfig struct {
	states bool
}

// WithStates records every node's internal state per step.
func WithStates() EvalOption {
	return func(c *evalConfig) { c.states = true }
}

// Evaluate replays points through fresh operator instances.
func (g *Graph) Evaluate(points []domain.Point, opts ...EvalOption) *Result {
	var cfg evalConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	started := time.Now()
	s := g.NewStepper()

	res := &Result{
		Order:    g.Order(),
		Outputs:  make(map[string][]bool, len(g.nodes)),
		Failures: s.Failures(),
	}
	for _, n := range g.nodes {
		res.Outputs[n.decl.ID] = make([]bool, 0, len(points))
	}
	if cfg.states {
		res.States = g.newStateColumns(len(points))
	}

	for _, p := range points {
		s.Step(p.Features)
		for i, n := range g.nodes {
			id := n.decl.ID
			res.Outputs[id] = append(res.Outputs[id], s.last[i])
		}
		if cfg.states {
			s.appendStates(res.States)
		}
	}

	g.cfg.recorder.ObserveEvaluation(len(g.nodes), len(points), time.Since(started))
	g.cfg.log.Debug().
		Int("nodes", len(g.nodes)).
		Int("points", len(points)).
		Int("failed", len(res.Failures)).
		Msg("graph evaluated")
	return res
}

func (g *Graph) newStateColumns(capacity int) map[string][]StateColumn {
	out := make(map[string][]StateColumn, len(g.nodes))
	for _, n := range g.nodes {
		names := signal.StateNames(n.decl.Type)
		if len(names) == 0 {
			continue
		}
		cols := make([]StateColumn, len(names))
		for k, name := range names {
			cols[k] = StateColumn{
				Name:   name,
				Values: make([]float64, 0, capacity),
				Valid:  make([]bool, 0, capacity),
			}
		}
		out[n.decl.ID] = cols
	}
	return out
}

func (s *Stepper) appendStates(states map[string][]StateColumn) {
	for i, n := range s.g.nodes {
		cols, ok := states[n.decl.ID]
		if !ok {
			continue
		}
		var current []signal.StateValue
		if r, ok := s.ops[i].(signal.StateReporter); ok {
			current = r.State()
		}
		for k := range cols {
			var v signal.StateValue
			if k < len(current) {
				v = current[k]
			}
			cols[k].Values = append(cols[k].Values, v.Value)
			cols[k].Valid = append(cols[k].Valid, v.Valid)
		}
	}
}
