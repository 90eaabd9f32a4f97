// Package graph orders a forest of signal nodes dependency-first and replays
// it over a point sequence, producing one boolean output sequence per node.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// dependency is one dependency parameter of a node, resolved to node ids.
type dependency struct {
	param string
	ids   []string
	list  bool
}

// node is one arena entry.
type node struct {
	decl     *domain.SignalNode
	deps     []dependency
	children []int // arena indices of distinct dependencies
}

// Graph is an immutable, validated node arena with a fixed evaluation order.
type Graph struct {
	nodes []node
	index map[string]int
	order []int
	cfg   options
}

// Build collects every node reachable from roots, resolves dependency
// parameters through defs and computes a dependency-first order. Nodes are
// identified by id; the first declaration of an id wins. Types without a
// schema entry infer dependencies from their children: signal_keys is a
// list, anything else a single dependency.
func Build(roots []*domain.SignalNode, defs domain.SignalDefs, opts ...Option) (*Graph, error) {
	g := &Graph{
		index: make(map[string]int),
		cfg:   newOptions(opts),
	}
	for _, r := range roots {
		g.collect(r)
	}

	for i := range g.nodes {
		n := &g.nodes[i]
		n.deps = resolveDependencies(n.decl, defs)
		seen := make(map[int]struct{})
		for _, d := range n.deps {
			for _, id := range d.ids {
				j, ok := g.index[id]
				if !ok {
					continue
				}
				if _, dup := seen[j]; dup {
					continue
				}
				seen[j] = struct{}{}
				n.children = append(n.children, j)
			}
		}
	}

	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

func (g *Graph) collect(n *domain.SignalNode) {
	if n == nil || n.ID == "" {
		return
	}
	if _, ok := g.index[n.ID]; ok {
		return
	}
	g.index[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, node{decl: n})

	for _, name := range sortedKeys(n.Children) {
		for _, child := range n.Children[name] {
			g.collect(child)
		}
	}
}

func resolveDependencies(n *domain.SignalNode, defs domain.SignalDefs) []dependency {
	if def, ok := defs[n.Type]; ok && len(def.Params) > 0 {
		var out []dependency
		for _, p := range def.Params {
			if !p.Kind.IsDependency() {
				continue
			}
			d := dependency{param: p.Name, list: p.Kind == domain.ParamSignalList}
			d.ids = childIDs(n.Children[p.Name], d.list)
			out = append(out, d)
		}
		return out
	}

	out := make([]dependency, 0, len(n.Children))
	for _, name := range sortedKeys(n.Children) {
		d := dependency{param: name, list: name == "signal_keys"}
		d.ids = childIDs(n.Children[name], d.list)
		out = append(out, d)
	}
	return out
}

func childIDs(children []*domain.SignalNode, list bool) []string {
	var ids []string
	for _, c := range children {
		if c == nil || c.ID == "" {
			if !list {
				break
			}
			continue
		}
		ids = append(ids, c.ID)
		if !list {
			break
		}
	}
	return ids
}

// topoSort is Kahn's algorithm. Among ready nodes the earliest discovered
// goes first, so the order is deterministic.
func (g *Graph) topoSort() ([]int, error) {
	n := len(g.nodes)
	pending := make([]int, n)
	parents := make([][]int, n)
	for i, nd := range g.nodes {
		pending[i] = len(nd.children)
		for _, c := range nd.children {
			parents[c] = append(parents[c], i)
		}
	}

	var ready []int
	for i := 0; i < n; i++ {
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)
		for _, p := range parents[i] {
			pending[p]--
			if pending[p] == 0 {
				pos := sort.SearchInts(ready, p)
				ready = append(ready, 0)
				copy(ready[pos+1:], ready[pos:])
				ready[pos] = p
			}
		}
	}

	if len(order) < n {
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(g.findCycle(pending), " -> "))
	}
	return order, nil
}

// findCycle returns the ids along one cycle among nodes left unordered.
func (g *Graph) findCycle(pending []int) []string {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(g.nodes))
	var stack []int
	var cycle []string

	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = grey
		stack = append(stack, i)
		for _, c := range g.nodes[i].children {
			if color[c] == grey {
				for k := len(stack) - 1; k >= 0; k-- {
					if stack[k] == c {
						for _, j := range stack[k:] {
							cycle = append(cycle, g.nodes[j].decl.ID)
						}
						cycle = append(cycle, g.nodes[c].decl.ID)
						return true
					}
				}
			}
			if color[c] == white && visit(c) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
		return false
	}

	for i := range g.nodes {
		if pending[i] > 0 && color[i] == white && visit(i) {
			break
		}
	}
	return cycle
}

// Len returns the number of distinct nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Order returns node ids in evaluation order, dependencies first.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	for k, i := range g.order {
		out[k] = g.nodes[i].decl.ID
	}
	return out
}

// Nodes returns the node declarations in discovery order.
func (g *Graph) Nodes() []*domain.SignalNode {
	out := make([]*domain.SignalNode, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.decl
	}
	return out
}

// Node returns the declaration of id.
func (g *Graph) Node(id string) (*domain.SignalNode, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	return g.nodes[i].decl, nil
}

// Dependencies returns the ids id transitively depends on, in evaluation order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	start, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}

	reach := make(map[int]bool)
	var walk func(i int)
	walk = func(i int) {
		for _, c := range g.nodes[i].children {
			if !reach[c] {
				reach[c] = true
				walk(c)
			}
		}
	}
	walk(start)

	var out []string
	for _, i := range g.order {
		if reach[i] {
			out = append(out, g.nodes[i].decl.ID)
		}
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
