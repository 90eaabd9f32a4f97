package replay

import (
	"sort"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// SortEvents orders events by (timestamp ASC, series order ASC, seq ASC).
// Coarser series come first in a run, so on equal timestamps a coarse point
// is replayed before the finer points it gates.
func SortEvents(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// MergeEvents combines the point sequences of several series into one
// sorted event stream. points[i] belongs to seriesIDs[i].
func MergeEvents(seriesIDs []string, points [][]domain.Point) []*Event {
	total := 0
	for _, ps := range points {
		total += len(ps)
	}
	events := make([]*Event, 0, total)

	for i, ps := range points {
		for j, p := range ps {
			events = append(events, &Event{
				SeriesID: seriesIDs[i],
				Order:    i,
				Seq:      j,
				Point:    p,
			})
		}
	}

	SortEvents(events)
	return events
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareEvents(a, b *Event) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.Order != b.Order {
		if a.Order < b.Order {
			return -1
		}
		return 1
	}
	if a.Seq != b.Seq {
		if a.Seq < b.Seq {
			return -1
		}
		return 1
	}
	return 0
}
