package storage

import (
	"context"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// PointStore provides access to series_points storage.
type PointStore interface {
	// InsertBulk adds points to a series atomically. Fails entire batch on any
	// duplicate (series_id, timestamp_ms), including duplicates within the batch.
	InsertBulk(ctx context.Context, seriesID string, points []domain.Point) error

	// GetBySeries retrieves all points of a series, ordered by timestamp ASC.
	// An unknown series yields an empty result.
	GetBySeries(ctx context.Context, seriesID string) ([]domain.Point, error)

	// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]domain.Point, error)

	// ListSeries returns the ids of all stored series, sorted.
	ListSeries(ctx context.Context) ([]string, error)
}
