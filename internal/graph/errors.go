package graph

import "errors"

var (
	// ErrCycle is returned when a node depends on itself, directly or transitively.
	ErrCycle = errors.New("signal graph contains a cycle")

	// ErrUnknownNode is returned when a node id is not part of the graph.
	ErrUnknownNode = errors.New("unknown signal node")
)
