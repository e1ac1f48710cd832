package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/tokenmeter/internal/domain"
	"github.com/davidbz/tokenmeter/internal/ledger/memory"
	"github.com/davidbz/tokenmeter/internal/mocks"
)

func TestPriceCatalog_Lookup(t *testing.T) {
	ctx := context.Background()
	catalog := domain.NewPriceCatalog(memory.NewStore())
	require.NoError(t, catalog.Seed(ctx, []domain.PriceEntry{price("gpt-4o", "2.5", "10")}))

	t.Run("exact match", func(t *testing.T) {
		entry := catalog.Lookup(ctx, "gpt-4o")
		require.Equal(t, "2.5", entry.InputPrice.String())
		require.Equal(t, "10", entry.OutputPrice.String())
	})

	t.Run("unknown model gets the fallback", func(t *testing.T) {
		entry := catalog.Lookup(ctx, "gpt-4o-2024")
		require.Equal(t, domain.FallbackPrice("gpt-4o-2024"), entry)
		require.Equal(t, "60", entry.InputPrice.String())
		require.Equal(t, "60", entry.OutputPrice.String())
	})
}

func TestPriceCatalog_Seed(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		store := memory.NewStore()
		catalog := domain.NewPriceCatalog(store)
		entries := []domain.PriceEntry{price("a", "1", "2"), price("b", "3", "4")}

		require.NoError(t, catalog.Seed(ctx, entries))
		require.NoError(t, catalog.Seed(ctx, entries))

		stored, err := store.ListPrices(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		require.Len(t, catalog.List(ctx), 2)
	})

	t.Run("last duplicate wins", func(t *testing.T) {
		catalog := domain.NewPriceCatalog(memory.NewStore())
		require.NoError(t, catalog.Seed(ctx, []domain.PriceEntry{
			price("a", "1", "2"),
			price("b", "3", "4"),
			price("a", "5", "6"),
		}))

		entries := catalog.List(ctx)
		require.Len(t, entries, 2)
		require.Equal(t, "a", entries[0].Model)
		require.Equal(t, "5", entries[0].InputPrice.String())
	})

	t.Run("invalid entries are rejected before storage", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		catalog := domain.NewPriceCatalog(store)

		err := catalog.Seed(ctx, []domain.PriceEntry{price("a", "-1", "2")})
		require.ErrorIs(t, err, domain.ErrInvalidPrice)

		err = catalog.Seed(ctx, []domain.PriceEntry{price("", "1", "2")})
		require.ErrorIs(t, err, domain.ErrInvalidPrice)
	})

	t.Run("store failure leaves the view untouched", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		store.EXPECT().UpsertPrices(mock.Anything, mock.Anything).Return(errors.New("disk full"))
		catalog := domain.NewPriceCatalog(store)

		err := catalog.Upsert(ctx, price("a", "1", "2"))
		require.Error(t, err)
		require.Equal(t, "60", catalog.Lookup(ctx, "a").InputPrice.String())
	})
}

func TestPriceCatalog_UpsertVisibleWithoutRestart(t *testing.T) {
	ctx := context.Background()
	catalog := domain.NewPriceCatalog(memory.NewStore())
	require.NoError(t, catalog.Seed(ctx, []domain.PriceEntry{price("m", "1", "1")}))

	require.NoError(t, catalog.Upsert(ctx, price("m", "7", "8")))

	entry := catalog.Lookup(ctx, "m")
	require.Equal(t, "7", entry.InputPrice.String())
	require.Equal(t, "8", entry.OutputPrice.String())
}

func TestPriceCatalog_Refresh(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	catalog := domain.NewPriceCatalog(store)

	// Written behind the catalog's back, as an operator editing the database would.
	require.NoError(t, store.UpsertPrices(ctx, []domain.PriceEntry{price("m", "3", "4")}))
	require.Equal(t, "60", catalog.Lookup(ctx, "m").InputPrice.String())

	require.NoError(t, catalog.Refresh(ctx))
	require.Equal(t, "3", catalog.Lookup(ctx, "m").InputPrice.String())
}

func TestPriceCatalog_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore()
	catalog := domain.NewPriceCatalog(store)
	require.NoError(t, store.UpsertPrices(ctx, []domain.PriceEntry{price("m", "3", "4")}))

	done := make(chan struct{})
	go func() {
		catalog.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return catalog.Lookup(ctx, "m").InputPrice.String() == "3"
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestPriceCatalog_ListSorted(t *testing.T) {
	ctx := context.Background()
	catalog := domain.NewPriceCatalog(memory.NewStore())
	require.NoError(t, catalog.Seed(ctx, []domain.PriceEntry{
		price("zeta", "1", "1"),
		price("alpha", "1", "1"),
		price("mid", "1", "1"),
	}))

	entries := catalog.List(ctx)
	require.Len(t, entries, 3)
	require.Equal(t, "alpha", entries[0].Model)
	require.Equal(t, "mid", entries[1].Model)
	require.Equal(t, "zeta", entries[2].Model)
}
