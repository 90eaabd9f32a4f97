package replay

import "errors"

var (
	// ErrInvalidOrdering is returned when a run cannot order its events
	// deterministically, e.g. a series id is listed twice.
	ErrInvalidOrdering = errors.New("events are not in deterministic order")

	// ErrInvalidRange is returned when a partial or inverted time range is given.
	ErrInvalidRange = errors.New("invalid replay time range")
)
