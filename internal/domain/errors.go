package domain

import "errors"

// ErrInvalidTimeframe is returned for timeframe configs with non-positive bounds.
var ErrInvalidTimeframe = errors.New("invalid timeframe config")
