package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/resample"
	"github.com/ShenglingZHU/hiera-tf/internal/storage"
)

// Workspace lists series ordered coarsest first.
type Workspace struct {
	Series []SeriesSpec `yaml:"series"`

	dir string
}

// SeriesSpec describes one series. Points come from exactly one of Points,
// CSV or Store.
type SeriesSpec struct {
	ID        string                 `yaml:"id"`
	Name      string                 `yaml:"name"`
	Timeframe domain.TimeframeConfig `yaml:"timeframe"`

	Points      []PointSpec `yaml:"points"`
	CSV         string      `yaml:"csv"`          // relative to the workspace file
	ValueColumn string      `yaml:"value_column"` // copied to "value" when reading CSV
	Store       bool        `yaml:"store"`        // read points from the point store by id

	Signals       []*domain.SignalNode `yaml:"signals"`
	Gating        string               `yaml:"gating"`
	DownwardFlags []bool               `yaml:"downward_flags"`
}

// PointSpec is an inline point.
type PointSpec struct {
	TS     int64          `yaml:"ts"`
	Values map[string]any `yaml:"values"`
}

// LoadWorkspace reads and validates a YAML (or JSON) workspace file.
func LoadWorkspace(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	ws, err := ParseWorkspace(data)
	if err != nil {
		return nil, fmt.Errorf("workspace %s: %w", path, err)
	}
	ws.dir = filepath.Dir(path)
	return ws, nil
}

// ParseWorkspace decodes and validates workspace data. CSV paths resolve
// against the working directory.
func ParseWorkspace(data []byte) (*Workspace, error) {
	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkspace, err)
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &ws, nil
}

// Validate checks ids, point sources, timeframes and gating references.
func (w *Workspace) Validate() error {
	if len(w.Series) == 0 {
		return fmt.Errorf("%w: no series", ErrInvalidWorkspace)
	}
	seen := make(map[string]struct{}, len(w.Series))
	for i := range w.Series {
		s := &w.Series[i]
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: series %d has no id", ErrInvalidWorkspace, i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate series id %q", ErrInvalidWorkspace, s.ID)
		}
		seen[s.ID] = struct{}{}

		sources := 0
		if len(s.Points) > 0 {
			sources++
		}
		if s.CSV != "" {
			sources++
		}
		if s.Store {
			sources++
		}
		if sources > 1 {
			return fmt.Errorf("%w: series %q sets more than one point source", ErrInvalidWorkspace, s.ID)
		}

		if s.Timeframe.Name == "" {
			s.Timeframe.Name = s.ID
		}
		if s.Timeframe.WindowSize == 0 {
			s.Timeframe.WindowSize = 1
		}
		s.Timeframe = s.Timeframe.WithDefaults()
		if err := s.Timeframe.Validate(); err != nil {
			return fmt.Errorf("series %q: %w", s.ID, err)
		}

		if s.Gating != "" && findNode(s.Signals, s.Gating) == nil {
			return fmt.Errorf("%w: series %q gating node %q not found", ErrInvalidWorkspace, s.ID, s.Gating)
		}
	}
	return nil
}

// Lookup returns the series definition with the given id.
func (w *Workspace) Lookup(id string) (*SeriesSpec, bool) {
	for i := range w.Series {
		if w.Series[i].ID == id {
			return &w.Series[i], true
		}
	}
	return nil, false
}

// Resolve materializes every series, reading points from CSV files or store.
// store may be nil when no series reads from it.
func (w *Workspace) Resolve(ctx context.Context, store storage.PointStore) ([]*domain.Series, error) {
	out := make([]*domain.Series, 0, len(w.Series))
	for i := range w.Series {
		s, err := w.ResolveSeries(ctx, &w.Series[i], store)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ResolveSeries materializes one series.
func (w *Workspace) ResolveSeries(ctx context.Context, spec *SeriesSpec, store storage.PointStore) (*domain.Series, error) {
	var points []domain.Point
	switch {
	case spec.Store:
		if store == nil {
			return nil, fmt.Errorf("series %q: %w", spec.ID, ErrNoStore)
		}
		var err error
		points, err = store.GetBySeries(ctx, spec.ID)
		if err != nil {
			return nil, fmt.Errorf("series %q: load points: %w", spec.ID, err)
		}
	case spec.CSV != "":
		path := spec.CSV
		if !filepath.IsAbs(path) && w.dir != "" {
			path = filepath.Join(w.dir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", spec.ID, err)
		}
		defer f.Close()
		points, err = resample.ReadCSV(f, spec.ValueColumn)
		if err != nil {
			return nil, fmt.Errorf("series %q: read %s: %w", spec.ID, spec.CSV, err)
		}
	default:
		points = spec.InlinePoints()
	}

	if spec.DownwardFlags != nil && len(spec.DownwardFlags) != len(points) {
		return nil, fmt.Errorf("%w: series %q has %d downward flags for %d points",
			ErrInvalidWorkspace, spec.ID, len(spec.DownwardFlags), len(points))
	}

	s := spec.Skeleton()
	s.Points = points
	s.DownwardFlags = spec.DownwardFlags
	return s, nil
}

// Skeleton returns the series without points, enough to build live views.
func (s *SeriesSpec) Skeleton() *domain.Series {
	return &domain.Series{
		ID:             s.ID,
		Name:           s.Name,
		Timeframe:      s.Timeframe,
		Signals:        s.Signals,
		GatingSignalID: s.Gating,
	}
}

// InlinePoints converts the inline points.
func (s *SeriesSpec) InlinePoints() []domain.Point {
	points := make([]domain.Point, len(s.Points))
	for i, p := range s.Points {
		features := make(domain.Features, len(p.Values))
		for k, v := range p.Values {
			features[k] = v
		}
		points[i] = domain.Point{TimestampMs: p.TS, Features: features}
	}
	return points
}

func findNode(nodes []*domain.SignalNode, id string) *domain.SignalNode {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			return n
		}
		for _, children := range n.Children {
			if found := findNode(children, id); found != nil {
				return found
			}
		}
	}
	return nil
}
