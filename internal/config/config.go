// Package config loads runtime settings and workspace files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Feed       FeedConfig       `yaml:"feed"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type ClickHouseConfig struct {
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
}

type MetricsConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

type FeedConfig struct {
	URL               string        `yaml:"url"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay"`
	PingInterval      time.Duration `yaml:"ping_interval"`
	Buffer            int           `yaml:"buffer"`
}

// Load reads .env if present, takes defaults from the environment, then
// overlays the YAML file at path. An empty path skips the overlay.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Logging: LoggingConfig{
			Level:   getEnvOrDefault("HTF_LOG_LEVEL", "info"),
			Console: getEnvOrDefault("HTF_LOG_CONSOLE", "true") == "true",
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("HTF_POSTGRES_DSN"),
		},
		ClickHouse: ClickHouseConfig{
			DSN:      os.Getenv("HTF_CLICKHOUSE_DSN"),
			Database: getEnvOrDefault("HTF_CLICKHOUSE_DATABASE", "default"),
		},
		Metrics: MetricsConfig{
			Addr:      getEnvOrDefault("HTF_METRICS_ADDR", ":9090"),
			Namespace: getEnvOrDefault("HTF_METRICS_NAMESPACE", "hiera_tf"),
		},
		Feed: FeedConfig{
			URL:               os.Getenv("HTF_FEED_URL"),
			ReconnectDelay:    getEnvDurationOrDefault("HTF_FEED_RECONNECT_DELAY", time.Second),
			MaxReconnectDelay: getEnvDurationOrDefault("HTF_FEED_MAX_RECONNECT_DELAY", 30*time.Second),
			PingInterval:      getEnvDurationOrDefault("HTF_FEED_PING_INTERVAL", 15*time.Second),
			Buffer:            getEnvIntOrDefault("HTF_FEED_BUFFER", 256),
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks durations and buffer sizes.
func (c *Config) Validate() error {
	if c.Feed.ReconnectDelay <= 0 {
		return fmt.Errorf("%w: feed.reconnect_delay must be > 0", ErrInvalidConfig)
	}
	if c.Feed.MaxReconnectDelay < c.Feed.ReconnectDelay {
		return fmt.Errorf("%w: feed.max_reconnect_delay must be >= reconnect_delay", ErrInvalidConfig)
	}
	if c.Feed.Buffer <= 0 {
		return fmt.Errorf("%w: feed.buffer must be > 0", ErrInvalidConfig)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
