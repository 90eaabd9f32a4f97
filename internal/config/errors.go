package config

import "errors"

var (
	// ErrInvalidConfig is returned when runtime config values are out of range.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidWorkspace is returned when a workspace file is malformed.
	ErrInvalidWorkspace = errors.New("invalid workspace")

	// ErrNoStore is returned when a series reads its points from a store but none is given.
	ErrNoStore = errors.New("series requires a point store")
)
