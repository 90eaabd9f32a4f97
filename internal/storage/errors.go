package storage

import "errors"

// Point store errors. Stored series are append-only.
var (
	// ErrDuplicateKey is returned when a (series_id, timestamp_ms) pair is
	// already stored or repeats within one batch.
	ErrDuplicateKey = errors.New("duplicate point: series points are append-only")

	// ErrInvalidInput is returned when points fail validation before insert.
	ErrInvalidInput = errors.New("invalid point input")
)
