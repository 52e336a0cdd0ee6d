//go:build integration

package gamification

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgresRepositoryContract(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("gamification"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
		postgrescontainer.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, MigratePostgres(connStr))
	// A second run must be a no-op.
	require.NoError(t, MigratePostgres(connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runRepositoryContract(t, NewPostgresRepository(pool))
}

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/x", migrateURL("postgres://u:p@db:5432/x"))
	require.Equal(t, "pgx5://u:p@db:5432/x", migrateURL("postgresql://u:p@db:5432/x"))
	require.Equal(t, "pgx5://db/x", migrateURL("pgx5://db/x"))
}
