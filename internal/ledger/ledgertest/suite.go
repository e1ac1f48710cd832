// Package ledgertest holds the behavior every domain.Store backend must share.
package ledgertest

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/tokenmeter/internal/domain"
)

// Run exercises store against the ledger contract. The store must start empty.
func Run(t *testing.T, store domain.Store) {
	t.Helper()

	t.Run("prices", func(t *testing.T) { testPrices(t, store) })
	t.Run("create user", func(t *testing.T) { testCreateUser(t, store) })
	t.Run("debit", func(t *testing.T) { testDebit(t, store) })
	t.Run("concurrent debits", func(t *testing.T) { testConcurrentDebits(t, store) })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func testPrices(t *testing.T, store domain.Store) {
	ctx := context.Background()

	_, err := store.GetPrice(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrPriceNotFound)

	require.NoError(t, store.UpsertPrices(ctx, []domain.PriceEntry{
		{Model: "gpt-4o-mini", InputPrice: dec("0.1875"), OutputPrice: dec("0.75")},
		{Model: "meta-llama/llama-3.1-405b-instruct:free", InputPrice: dec("0"), OutputPrice: dec("0")},
	}))

	entry, err := store.GetPrice(ctx, "gpt-4o-mini")
	require.NoError(t, err)
	requireAmount(t, "0.1875", entry.InputPrice)
	requireAmount(t, "0.75", entry.OutputPrice)

	require.NoError(t, store.UpsertPrices(ctx, []domain.PriceEntry{
		{Model: "gpt-4o-mini", InputPrice: dec("21.6"), OutputPrice: dec("108")},
	}))

	entry, err = store.GetPrice(ctx, "gpt-4o-mini")
	require.NoError(t, err)
	requireAmount(t, "21.6", entry.InputPrice)
	requireAmount(t, "108", entry.OutputPrice)

	entries, err := store.ListPrices(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NoError(t, store.UpsertPrices(ctx, nil))
}

func testCreateUser(t *testing.T, store domain.Store) {
	ctx := context.Background()

	_, err := store.GetUser(ctx, "create-1")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	created, err := store.CreateUser(ctx, &domain.UserAccount{
		ID:      "create-1",
		Name:    "Ann",
		Email:   "ann@example.com",
		Role:    "admin",
		Balance: domain.DefaultBalance,
	})
	require.NoError(t, err)
	require.Equal(t, "create-1", created.ID)
	require.Equal(t, "Ann", created.Name)
	require.Equal(t, "admin", created.Role)
	requireAmount(t, "10", created.Balance)

	again, err := store.CreateUser(ctx, &domain.UserAccount{
		ID:      "create-1",
		Name:    "Bob",
		Role:    "user",
		Balance: dec("99"),
	})
	require.NoError(t, err)
	require.Equal(t, "Ann", again.Name)
	require.Equal(t, "ann@example.com", again.Email)
	require.Equal(t, "admin", again.Role)
	requireAmount(t, "10", again.Balance)

	fetched, err := store.GetUser(ctx, "create-1")
	require.NoError(t, err)
	require.Equal(t, again, fetched)
}

func testDebit(t *testing.T, store domain.Store) {
	ctx := context.Background()

	_, err := store.CreateUser(ctx, &domain.UserAccount{ID: "debit-1", Role: "user", Balance: domain.DefaultBalance})
	require.NoError(t, err)

	balance, err := store.Debit(ctx, "debit-1", dec("0.004"))
	require.NoError(t, err)
	requireAmount(t, "9.996", balance)

	account, err := store.GetUser(ctx, "debit-1")
	require.NoError(t, err)
	requireAmount(t, "9.996", account.Balance)

	balance, err = store.Debit(ctx, "debit-1", dec("100"))
	require.NoError(t, err)
	requireAmount(t, "0", balance)

	balance, err = store.Debit(ctx, "debit-1", dec("0.5"))
	require.NoError(t, err)
	requireAmount(t, "0", balance)

	// Unknown ids are created at the default balance and debited in one step.
	balance, err = store.Debit(ctx, "debit-new", dec("0.004"))
	require.NoError(t, err)
	requireAmount(t, "9.996", balance)

	account, err = store.GetUser(ctx, "debit-new")
	require.NoError(t, err)
	require.Equal(t, domain.DefaultRole, account.Role)
	requireAmount(t, "9.996", account.Balance)
}

func testConcurrentDebits(t *testing.T, store domain.Store) {
	const debits = 50

	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, debits)
	for range debits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Debit(ctx, "concurrent-1", dec("0.0123"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// 10 - 50 * 0.0123 = 9.385
	account, err := store.GetUser(ctx, "concurrent-1")
	require.NoError(t, err)
	requireAmount(t, "9.385", account.Balance)
}
