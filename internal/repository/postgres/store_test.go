package postgresrepo

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/showseat/internal/postgres"
	"github.com/kirinyoku/showseat/internal/repository"
	"github.com/kirinyoku/showseat/internal/repository/repotest"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName      = "showseat"
	dbUser      = "test_user"
	dbPassword  = "test_password"
	dbImageName = "postgres:17-alpine"
)

// startPostgres runs a migrated database in a container, skipping the test
// when Docker is not available.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("integration test")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, dbImageName,
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername(dbUser),
		tcpostgres.WithPassword(dbPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, postgres.Migrate(dsn))

	pool, err := postgres.New(ctx, dsn, 50)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx,
		`TRUNCATE reserved_seats, reservations, showings, screens RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func TestInventory(t *testing.T) {
	pool := startPostgres(t)

	suite.Run(t, &repotest.InventorySuite{
		NewStore: func() repository.Store {
			truncate(t, pool)
			return NewStore(pool)
		},
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	pool := startPostgres(t)

	dsn := pool.Config().ConnString()
	require.NoError(t, postgres.Migrate(dsn))
}
