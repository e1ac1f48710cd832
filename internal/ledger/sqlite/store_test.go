package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/tokenmeter/internal/domain"
	"github.com/davidbz/tokenmeter/internal/ledger/ledgertest"
	"github.com/davidbz/tokenmeter/internal/ledger/sqlite"
)

func newStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()

	store, err := sqlite.NewStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStore(t *testing.T) {
	ledgertest.Run(t, newStore(t, filepath.Join(t.TempDir(), "models.db")))
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models.db")

	store, err := sqlite.NewStore(ctx, path)
	require.NoError(t, err)

	require.NoError(t, store.UpsertPrices(ctx, []domain.PriceEntry{{
		Model:       "deepseek-chat",
		InputPrice:  decimal.RequireFromString("1"),
		OutputPrice: decimal.RequireFromString("2"),
	}}))
	_, err = store.Debit(ctx, "u1", decimal.RequireFromString("0.0001"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Migrations are recorded, so a second open must not fail or wipe data.
	reopened := newStore(t, path)

	entry, err := reopened.GetPrice(ctx, "deepseek-chat")
	require.NoError(t, err)
	require.Equal(t, "2", entry.OutputPrice.String())

	account, err := reopened.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "9.9999", account.Balance.String())
}
