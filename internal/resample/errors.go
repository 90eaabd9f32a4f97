package resample

import "errors"

var (
	// ErrInvalidScale is returned for unknown units or non-positive steps.
	ErrInvalidScale = errors.New("invalid resample scale")

	// ErrInvalidAggregation is returned for unknown methods or out-of-range percentiles.
	ErrInvalidAggregation = errors.New("invalid aggregation")

	// ErrNoTimestamp is returned when input rows carry no usable time columns.
	ErrNoTimestamp = errors.New("no timestamp columns")
)
