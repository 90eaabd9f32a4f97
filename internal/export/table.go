package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// TimeColumns are the UTC calendar columns written after timestamp_ms.
var TimeColumns = []string{"Year", "Month", "Day", "Hour", "Minute", "Second"}

// Table is a rendered, column-ordered replay.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the cells of the named column.
func (t *Table) Column(name string) ([]string, bool) {
	idx := -1
	for i, h := range t.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// WriteCSV writes the header and every row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// builder accumulates columns of equal length and transposes them into a Table.
type builder struct {
	n       int
	header  []string
	columns [][]string
	seen    map[string]bool
}

func newBuilder(n int) *builder {
	return &builder{n: n, seen: make(map[string]bool)}
}

// add appends a column. A repeated name keeps the first column.
func (b *builder) add(name string, cells []string) bool {
	if b.seen[name] {
		return false
	}
	b.seen[name] = true
	b.header = append(b.header, name)
	b.columns = append(b.columns, cells)
	return true
}

func (b *builder) addTime(timestamps []int64) {
	ms := make([]string, b.n)
	parts := make([][]string, len(TimeColumns))
	for k := range parts {
		parts[k] = make([]string, b.n)
	}
	for i, ts := range timestamps {
		t := time.UnixMilli(ts).UTC()
		ms[i] = strconv.FormatInt(ts, 10)
		for k, v := range []int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()} {
			parts[k][i] = strconv.Itoa(v)
		}
	}
	b.add("timestamp_ms", ms)
	for k, name := range TimeColumns {
		b.add(name, parts[k])
	}
}

func (b *builder) table() *Table {
	rows := make([][]string, b.n)
	for i := range rows {
		row := make([]string, len(b.columns))
		for c, col := range b.columns {
			row[c] = col[i]
		}
		rows[i] = row
	}
	return &Table{Header: b.header, Rows: rows}
}

func flagCells(flags []bool) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		if f {
			out[i] = "1"
		} else {
			out[i] = "0"
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	}
	if x, ok := domain.ToNumber(v); ok {
		return formatFloat(x)
	}
	return fmt.Sprint(v)
}

// Points renders points with time columns followed by every feature key in
// sorted order. Missing features render empty.
func Points(points []domain.Point) *Table {
	b := newBuilder(len(points))
	b.addTime(domain.Timestamps(points))

	keys := make(map[string]struct{})
	for _, p := range points {
		for k := range p.Features {
			keys[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		cells := make([]string, len(points))
		for i, p := range points {
			cells[i] = formatScalar(p.Features[name])
		}
		b.add(name, cells)
	}
	return b.table()
}
