package clickhouse

import (
	"context"
	"fmt"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/storage"
)

// PointStore implements storage.PointStore using ClickHouse.
type PointStore struct {
	conn *Conn
}

// NewPointStore creates a new PointStore.
func NewPointStore(conn *Conn) *PointStore {
	return &PointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PointStore = (*PointStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (series_id, timestamp_ms).
// MergeTree does not enforce uniqueness, so existing keys are checked first.
func (s *PointStore) InsertBulk(ctx context.Context, seriesID string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := storage.ValidatePoints(seriesID, points); err != nil {
		return err
	}

	encoded := make([]string, len(points))
	for i, p := range points {
		data, err := storage.EncodeFeatures(p.Features)
		if err != nil {
			return err
		}
		encoded[i] = string(data)
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, seriesID, p.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO series_points (series_id, timestamp_ms, features)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, p := range points {
		if err := batch.Append(seriesID, p.TimestampMs, encoded[i]); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySeries retrieves all points of a series, ordered by timestamp ASC.
func (s *PointStore) GetBySeries(ctx context.Context, seriesID string) ([]domain.Point, error) {
	query := `
		SELECT timestamp_ms, features
		FROM series_points
		WHERE series_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query by series id: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
func (s *PointStore) GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]domain.Point, error) {
	query := `
		SELECT timestamp_ms, features
		FROM series_points
		WHERE series_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// ListSeries returns the ids of all stored series, sorted.
func (s *PointStore) ListSeries(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT series_id FROM series_points ORDER BY series_id`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan series id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series ids: %w", err)
	}
	return ids, nil
}

// exists checks if a point with the given key exists.
func (s *PointStore) exists(ctx context.Context, seriesID string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM series_points
		WHERE series_id = ? AND timestamp_ms = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, seriesID, timestampMs).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanPoints scans multiple rows.
func scanPoints(rows chRows) ([]domain.Point, error) {
	var points []domain.Point

	for rows.Next() {
		var (
			p        domain.Point
			features string
		)
		if err := rows.Scan(&p.TimestampMs, &features); err != nil {
			return nil, fmt.Errorf("scan series point row: %w", err)
		}
		f, err := storage.DecodeFeatures([]byte(features))
		if err != nil {
			return nil, fmt.Errorf("series point %d: %w", p.TimestampMs, err)
		}
		p.Features = f
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series point rows: %w", err)
	}

	return points, nil
}
