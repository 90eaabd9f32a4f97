package domain

import (
	"fmt"
	"strings"
)

// Role tags a timeframe as coarse (HTF) or fine (LTF).
type Role string

const (
	RoleHTF Role = "HTF"
	RoleLTF Role = "LTF"
)

// String returns the string representation of Role.
func (r Role) String() string {
	return string(r)
}

// DefaultMaxBuffer bounds a view's buffer when no bound is configured.
const DefaultMaxBuffer = 1024

// TimeframeConfig is the static configuration of one timeframe view.
type TimeframeConfig struct {
	Name       string `json:"name" yaml:"name"`
	Role       Role   `json:"role" yaml:"role"`
	WindowSize int    `json:"window_size" yaml:"window_size"` // points used for features
	MaxBuffer  int    `json:"max_buffer" yaml:"max_buffer"`   // eviction bound
}

// NewTimeframeConfig builds a validated config. Role is upper-cased and defaults to LTF.
func NewTimeframeConfig(name string, role Role, windowSize, maxBuffer int) (TimeframeConfig, error) {
	cfg := TimeframeConfig{
		Name:       name,
		Role:       role,
		WindowSize: windowSize,
		MaxBuffer:  maxBuffer,
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return TimeframeConfig{}, err
	}
	return cfg, nil
}

func (c *TimeframeConfig) normalize() {
	c.Role = Role(strings.ToUpper(strings.TrimSpace(string(c.Role))))
	if c.Role == "" {
		c.Role = RoleLTF
	}
}

// Validate checks the name is set and both bounds are positive.
func (c TimeframeConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTimeframe)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size must be > 0, got %d", ErrInvalidTimeframe, c.WindowSize)
	}
	if c.MaxBuffer <= 0 {
		return fmt.Errorf("%w: max_buffer must be > 0, got %d", ErrInvalidTimeframe, c.MaxBuffer)
	}
	return nil
}

// WithDefaults fills a zero MaxBuffer and normalizes the role.
// Used for configs decoded from files.
func (c TimeframeConfig) WithDefaults() TimeframeConfig {
	if c.MaxBuffer == 0 {
		c.MaxBuffer = DefaultMaxBuffer
	}
	c.normalize()
	return c
}
