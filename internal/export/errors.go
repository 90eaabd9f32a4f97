package export

import "errors"

var (
	// ErrSignalNotFound is returned when no node matches the requested type and alias.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrAmbiguousSignal is returned when several nodes match the requested type and alias.
	ErrAmbiguousSignal = errors.New("signal type and alias match more than one node")
)
