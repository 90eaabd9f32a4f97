package resample

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

var timestampColumns = []string{"ts", "timestamp", "timestamp_ms"}

// calendarAliases lists accepted header spellings per calendar field, year first.
var calendarAliases = [][]string{
	{"year", "Year", "YEAR", "yyyy", "YYYY"},
	{"month", "Month", "MONTH", "mm", "MM"},
	{"day", "Day", "DAY", "dd", "DD"},
	{"hour", "Hour", "HOUR", "hh", "HH"},
	{"minute", "Minute", "MINUTE", "min", "MIN"},
	{"second", "Second", "SECOND", "sec", "SEC", "ss", "SS"},
}

// timeLayout locates the time columns of a header.
type timeLayout struct {
	tsCol    int
	calendar [6]int // -1 when absent
}

func detectTimeLayout(header []string) (timeLayout, error) {
	l := timeLayout{tsCol: -1, calendar: [6]int{-1, -1, -1, -1, -1, -1}}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}

	for _, name := range timestampColumns {
		if i, ok := pos[name]; ok {
			l.tsCol = i
			return l, nil
		}
	}

	for k, aliases := range calendarAliases {
		for _, a := range aliases {
			if i, ok := pos[a]; ok {
				l.calendar[k] = i
				break
			}
		}
	}
	if l.calendar[0] < 0 {
		return l, fmt.Errorf("%w: need one of %v or a year column", ErrNoTimestamp, timestampColumns)
	}
	return l, nil
}

func (l timeLayout) isTimeColumn(i int) bool {
	if i == l.tsCol {
		return true
	}
	for _, c := range l.calendar {
		if c == i && c >= 0 {
			return true
		}
	}
	return false
}

// timestamp returns the epoch ms of a row. The bool is false for rows whose
// time columns are blank or malformed.
func (l timeLayout) timestamp(row []string) (int64, bool) {
	if l.tsCol >= 0 {
		return parseTimestamp(row[l.tsCol])
	}

	fields := [6]int{0, 1, 1, 0, 0, 0}
	for k, col := range l.calendar {
		if col < 0 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(row[col]))
		if err != nil {
			return 0, false
		}
		fields[k] = n
	}
	if fields[0] == 0 || fields[1] == 0 || fields[2] == 0 {
		return 0, false
	}
	t := time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, time.UTC)
	return t.UnixMilli(), true
}

func parseTimestamp(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), true
	}
	return 0, false
}

// ReadCSV parses rows with a header into points. Time comes from a ts,
// timestamp or timestamp_ms column (epoch ms or RFC 3339) or from calendar
// columns in UTC. Every other non-blank cell becomes a feature. When
// valueColumn is set, that column is also exposed as the raw value. Rows
// with unusable time columns are skipped.
func ReadCSV(r io.Reader, valueColumn string) ([]domain.Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	layout, err := detectTimeLayout(header)
	if err != nil {
		return nil, err
	}

	var points []domain.Point
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(row) < len(header) {
			row = append(row, make([]string, len(header)-len(row))...)
		}

		ts, ok := layout.timestamp(row)
		if !ok {
			continue
		}

		feats := make(domain.Features, len(header))
		for i, name := range header {
			if layout.isTimeColumn(i) {
				continue
			}
			cell := strings.TrimSpace(row[i])
			if cell == "" {
				continue
			}
			feats[strings.TrimSpace(name)] = domain.ParseScalar(cell)
		}
		if valueColumn != "" && valueColumn != domain.RawValueKey {
			if v, ok := feats[valueColumn]; ok {
				feats[domain.RawValueKey] = v
			}
		}
		points = append(points, domain.Point{TimestampMs: ts, Features: feats})
	}
	return points, nil
}
