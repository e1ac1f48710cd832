package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/davidbz/tokenmeter/internal/domain"
	"github.com/davidbz/tokenmeter/internal/observability"
)

// Guard bounds every store operation with a timeout and wraps failures in
// domain.ErrStorage. Idempotent operations are retried once; Debit is not,
// since a debit that timed out after committing would be applied twice.
type Guard struct {
	next    domain.Store
	timeout time.Duration
}

// NewGuard wraps store. A non-positive timeout disables the deadline.
func NewGuard(store domain.Store, timeout time.Duration) *Guard {
	return &Guard{next: store, timeout: timeout}
}

// ListPrices returns every stored price entry.
func (g *Guard) ListPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	var entries []domain.PriceEntry
	err := g.retry(ctx, "list_prices", func(ctx context.Context) error {
		var err error
		entries, err = g.next.ListPrices(ctx)
		return err
	})
	return entries, err
}

// GetPrice returns the entry for a model.
func (g *Guard) GetPrice(ctx context.Context, model string) (domain.PriceEntry, error) {
	var entry domain.PriceEntry
	err := g.retry(ctx, "get_price", func(ctx context.Context) error {
		var err error
		entry, err = g.next.GetPrice(ctx, model)
		return err
	})
	return entry, err
}

// UpsertPrices replaces entries by model name.
func (g *Guard) UpsertPrices(ctx context.Context, entries []domain.PriceEntry) error {
	return g.retry(ctx, "upsert_prices", func(ctx context.Context) error {
		return g.next.UpsertPrices(ctx, entries)
	})
}

// GetUser returns the stored account.
func (g *Guard) GetUser(ctx context.Context, id string) (*domain.UserAccount, error) {
	var account *domain.UserAccount
	err := g.retry(ctx, "get_user", func(ctx context.Context) error {
		var err error
		account, err = g.next.GetUser(ctx, id)
		return err
	})
	return account, err
}

// CreateUser inserts account unless the id is taken.
func (g *Guard) CreateUser(ctx context.Context, account *domain.UserAccount) (*domain.UserAccount, error) {
	var stored *domain.UserAccount
	err := g.retry(ctx, "create_user", func(ctx context.Context) error {
		var err error
		stored, err = g.next.CreateUser(ctx, account)
		return err
	})
	return stored, err
}

// Debit applies cost to the balance of id. It is attempted exactly once.
func (g *Guard) Debit(ctx context.Context, id string, cost decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := g.once(ctx, func(ctx context.Context) error {
		var err error
		balance, err = g.next.Debit(ctx, id, cost)
		return err
	})
	if err != nil {
		return decimal.Zero, domain.StorageFailure(err)
	}
	return balance, nil
}

// Close closes the wrapped store.
func (g *Guard) Close() error {
	return g.next.Close()
}

func (g *Guard) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	err := g.once(ctx, fn)
	if !retryable(ctx, err) {
		return storageError(err)
	}

	observability.FromContext(ctx).Warn("storage operation failed, retrying",
		zap.String("operation", op),
		zap.Error(err),
	)

	return storageError(g.once(ctx, fn))
}

func (g *Guard) once(ctx context.Context, fn func(context.Context) error) error {
	if g.timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return fn(ctx)
}

// retryable reports whether err is a storage failure worth a second attempt.
func retryable(ctx context.Context, err error) bool {
	if err == nil || isNotFound(err) {
		return false
	}
	// The caller gave up; a retry would fail the same way.
	return ctx.Err() == nil
}

func storageError(err error) error {
	if err == nil || isNotFound(err) {
		return err
	}
	return domain.StorageFailure(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrPriceNotFound)
}
