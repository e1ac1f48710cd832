package domain

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/davidbz/tokenmeter/internal/events"
)

// PriceStore persists the model price table.
type PriceStore interface {
	// ListPrices returns every stored price entry.
	ListPrices(ctx context.Context) ([]PriceEntry, error)

	// GetPrice returns the entry for a model or ErrPriceNotFound.
	GetPrice(ctx context.Context, model string) (PriceEntry, error)

	// UpsertPrices inserts entries, replacing existing ones by model name.
	UpsertPrices(ctx context.Context, entries []PriceEntry) error
}

// LedgerStore persists user balance records.
type LedgerStore interface {
	// GetUser returns the stored account or ErrUserNotFound.
	GetUser(ctx context.Context, id string) (*UserAccount, error)

	// CreateUser inserts the account unless one with the same id exists,
	// and returns whatever is stored afterwards.
	CreateUser(ctx context.Context, account *UserAccount) (*UserAccount, error)

	// Debit subtracts cost from the balance of id, floored at zero, creating
	// the account at DefaultBalance first when it does not exist. It returns
	// the new balance. Concurrent debits for the same id must not lose updates.
	Debit(ctx context.Context, id string, cost decimal.Decimal) (decimal.Decimal, error)
}

// Store is a storage backend serving both the catalog and the ledger.
type Store interface {
	PriceStore
	LedgerStore

	// Close releases connections held by the backend.
	Close() error
}

// Encoder turns text into a token count.
type Encoder interface {
	// Count returns the number of tokens in text.
	Count(text string) (int, error)

	// Name returns the encoding identifier.
	Name() string
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

// Event types published by the domain services.
const (
	EventUsageRecorded       = events.UsageRecorded
	EventBalanceUpdateFailed = events.BalanceUpdateFailed
	EventUserCreated         = events.UserCreated
	EventTokensCounted       = events.TokensCounted
)
