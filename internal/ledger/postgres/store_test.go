package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/tokenmeter/internal/ledger/ledgertest"
	"github.com/davidbz/tokenmeter/internal/ledger/postgres"
)

// TestStore runs against a real database when TEST_POSTGRES_DSN is set.
// Both tables are truncated first.
func TestStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	store := postgres.NewStore(pool, pool.Close)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE model_prices, users`)
	require.NoError(t, err)

	ledgertest.Run(t, store)
}
