package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ShenglingZHU/hiera-tf/internal/storage/migrations"
	"github.com/ShenglingZHU/hiera-tf/internal/storage/postgres"
)

// newTestStore starts a PostgreSQL container, applies the embedded
// migrations and returns a point store on it. The container is removed
// when the test ends.
func newTestStore(t *testing.T) *postgres.PointStore {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("htf"),
		tcpostgres.WithUsername("htf"),
		tcpostgres.WithPassword("htf"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))
	// Applying twice must be a no-op.
	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))

	return postgres.NewPointStore(pool)
}
