package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/storage"
)

// PointStore is an in-memory implementation of storage.PointStore.
type PointStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]domain.Point // series_id -> timestamp_ms -> point
}

// NewPointStore creates a new in-memory point store.
func NewPointStore() *PointStore {
	return &PointStore{
		data: make(map[string]map[int64]domain.Point),
	}
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *PointStore) InsertBulk(_ context.Context, seriesID string, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := storage.ValidatePoints(seriesID, points); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check existing data
	existing := s.data[seriesID]
	for _, p := range points {
		if _, exists := existing[p.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[int64]domain.Point, len(points))
		s.data[seriesID] = existing
	}
	for _, p := range points {
		existing[p.TimestampMs] = p.Clone()
	}

	return nil
}

// GetBySeries retrieves all points of a series, ordered by timestamp ASC.
func (s *PointStore) GetBySeries(_ context.Context, seriesID string) ([]domain.Point, error) {
	return s.collect(seriesID, func(int64) bool { return true }), nil
}

// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
func (s *PointStore) GetByTimeRange(_ context.Context, seriesID string, start, end int64) ([]domain.Point, error) {
	return s.collect(seriesID, func(ts int64) bool { return ts >= start && ts <= end }), nil
}

// ListSeries returns the ids of all stored series, sorted.
func (s *PointStore) ListSeries(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *PointStore) collect(seriesID string, keep func(int64) bool) []domain.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Point
	for ts, p := range s.data[seriesID] {
		if keep(ts) {
			result = append(result, p.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result
}

var _ storage.PointStore = (*PointStore)(nil)
