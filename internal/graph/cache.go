package graph

import (
	"fmt"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// Cache holds evaluation results keyed by series id. It never invalidates
// itself: callers must Invalidate a series whenever its node forest or
// points change. Not safe for concurrent use.
type Cache struct {
	defs    domain.SignalDefs
	opts    []Option
	cfg     options
	entries map[string]*Result
}

// NewCache creates an empty cache evaluating with defs.
func NewCache(defs domain.SignalDefs, opts ...Option) *Cache {
	return &Cache{
		defs:    defs,
		opts:    opts,
		cfg:     newOptions(opts),
		entries: make(map[string]*Result),
	}
}

// Result returns the cached result for s, evaluating it on a miss.
func (c *Cache) Result(s *domain.Series) (*Result, error) {
	if res, ok := c.entries[s.ID]; ok {
		c.cfg.recorder.CacheHit()
		c.cfg.log.Debug().Str("series", s.ID).Msg("signal cache hit")
		return res, nil
	}
	c.cfg.recorder.CacheMiss()
	c.cfg.log.Debug().Str("series", s.ID).Msg("signal cache miss")

	g, err := Build(s.Signals, c.defs, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", s.ID, err)
	}
	res := g.Evaluate(s.Points)
	c.entries[s.ID] = res
	return res, nil
}

// Outputs returns every node's output sequence for s.
func (c *Cache) Outputs(s *domain.Series) (map[string][]bool, error) {
	res, err := c.Result(s)
	if err != nil {
		return nil, err
	}
	return res.Outputs, nil
}

// Invalidate discards the cached result of a series.
func (c *Cache) Invalidate(seriesID string) {
	delete(c.entries, seriesID)
}

// Clear discards every cached result.
func (c *Cache) Clear() {
	clear(c.entries)
}

// Len returns the number of cached series.
func (c *Cache) Len() int { return len(c.entries) }
