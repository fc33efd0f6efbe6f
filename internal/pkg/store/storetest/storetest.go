// Package storetest starts a throwaway PostgreSQL for DB-backed tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ougirez/hvac-catalog/internal/pkg/store/migrations"
	"github.com/ougirez/hvac-catalog/internal/pkg/store/xpgx"
)

// NewPool creates a PostgreSQL container with the catalog schema applied.
// The test is skipped in -short mode or when no container runtime is
// reachable. The container is terminated when the test finishes.
func NewPool(t *testing.T) *xpgx.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := xpgx.NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool), "failed to apply schema")
	// a second run must be a no-op
	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool), "schema is not re-runnable")

	return pool
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
