package hierarchy

import "errors"

// ErrUnknownSeries is returned when a target series is not in the ordered list.
var ErrUnknownSeries = errors.New("unknown series")
