package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/storage"
)

// PointStore implements storage.PointStore using PostgreSQL.
type PointStore struct {
	pool *Pool
}

// NewPointStore creates a new PointStore.
func NewPointStore(pool *Pool) *PointStore {
	return &PointStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PointStore = (*PointStore)(nil)

// InsertBulk adds multiple points atomically. Fails entire batch on any duplicate.
func (s *PointStore) InsertBulk(ctx context.Context, seriesID string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := storage.ValidatePoints(seriesID, points); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO series_points (series_id, timestamp_ms, features)
		VALUES ($1, $2, $3::jsonb)
	`

	for _, p := range points {
		features, err := storage.EncodeFeatures(p.Features)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, seriesID, p.TimestampMs, string(features)); err != nil {
			if isDuplicatePoint(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert series point in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySeries retrieves all points of a series, ordered by timestamp ASC.
func (s *PointStore) GetBySeries(ctx context.Context, seriesID string) ([]domain.Point, error) {
	query := `
		SELECT timestamp_ms, features
		FROM series_points
		WHERE series_id = $1
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("get points by series id: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
func (s *PointStore) GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]domain.Point, error) {
	query := `
		SELECT timestamp_ms, features
		FROM series_points
		WHERE series_id = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, seriesID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get points by time range: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// ListSeries returns the ids of all stored series, sorted.
func (s *PointStore) ListSeries(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT series_id FROM series_points ORDER BY series_id`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan series ids: %w", err)
	}
	return ids, nil
}

// scanPoints scans multiple rows into a slice of Point.
func scanPoints(rows pgx.Rows) ([]domain.Point, error) {
	var points []domain.Point

	for rows.Next() {
		var (
			p        domain.Point
			features []byte
		)
		if err := rows.Scan(&p.TimestampMs, &features); err != nil {
			return nil, fmt.Errorf("scan series point: %w", err)
		}
		f, err := storage.DecodeFeatures(features)
		if err != nil {
			return nil, fmt.Errorf("series point %d: %w", p.TimestampMs, err)
		}
		p.Features = f
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series points: %w", err)
	}

	return points, nil
}
