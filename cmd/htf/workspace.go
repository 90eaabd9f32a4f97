package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShenglingZHU/hiera-tf/internal/config"
	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/storage"
	"github.com/ShenglingZHU/hiera-tf/internal/storage/clickhouse"
	"github.com/ShenglingZHU/hiera-tf/internal/storage/memory"
	"github.com/ShenglingZHU/hiera-tf/internal/storage/migrations"
	"github.com/ShenglingZHU/hiera-tf/internal/storage/postgres"
)

// Store kinds accepted by --store.
const (
	storeNone       = ""
	storeMemory     = "memory"
	storePostgres   = "postgres"
	storeClickhouse = "clickhouse"
)

// openStore connects to the named point store. The returned close func is
// never nil. With migrate set, embedded migrations run first.
func openStore(ctx context.Context, kind string, migrate bool) (storage.PointStore, func(), error) {
	nop := func() {}
	switch strings.ToLower(kind) {
	case storeNone:
		return nil, nop, nil
	case storeMemory:
		return memory.NewPointStore(), nop, nil
	case storePostgres:
		if appCfg.Postgres.DSN == "" {
			return nil, nop, fmt.Errorf("postgres DSN is not configured (HTF_POSTGRES_DSN)")
		}
		pool, err := postgres.NewPool(ctx, appCfg.Postgres.DSN)
		if err != nil {
			return nil, nop, fmt.Errorf("connect to postgres: %w", err)
		}
		if migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, nop, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		logger.Info().Msg("connected to postgres")
		return postgres.NewPointStore(pool), pool.Close, nil
	case storeClickhouse:
		if appCfg.ClickHouse.DSN == "" {
			return nil, nop, fmt.Errorf("clickhouse DSN is not configured (HTF_CLICKHOUSE_DSN)")
		}
		var (
			conn *clickhouse.Conn
			err  error
		)
		if migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, appCfg.ClickHouse.DSN)
		} else {
			conn, err = clickhouse.NewConnWithDatabase(ctx, appCfg.ClickHouse.DSN, appCfg.ClickHouse.Database)
		}
		if err != nil {
			return nil, nop, fmt.Errorf("connect to clickhouse: %w", err)
		}
		logger.Info().Msg("connected to clickhouse")
		closeConn := func() {
			if err := conn.Close(); err != nil {
				logger.Warn().Err(err).Msg("close clickhouse connection")
			}
		}
		return clickhouse.NewPointStore(conn), closeConn, nil
	default:
		return nil, nop, fmt.Errorf("unknown store %q (want postgres, clickhouse or memory)", kind)
	}
}

// loadSeries reads the workspace and materializes its series, coarsest first.
func loadSeries(ctx context.Context, path, storeKind string) ([]*domain.Series, *config.Workspace, func(), error) {
	ws, err := config.LoadWorkspace(path)
	if err != nil {
		return nil, nil, func() {}, err
	}
	store, closeStore, err := openStore(ctx, storeKind, false)
	if err != nil {
		return nil, nil, closeStore, err
	}
	series, err := ws.Resolve(ctx, store)
	if err != nil {
		return nil, nil, closeStore, err
	}
	logger.Debug().Str("workspace", path).Int("series", len(series)).Msg("workspace loaded")
	return series, ws, closeStore, nil
}

// openOutput returns the command's stdout for an empty path.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
