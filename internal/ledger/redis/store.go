// Package redis implements the ledger and price store on Redis.
//
// Prices live in the model_prices hash as JSON. Each account is a user:{id}
// hash whose balance is kept as an integer count of ten-thousandths in the
// balance_units field, so the Lua debit script only does integer arithmetic.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/davidbz/tokenmeter/internal/domain"
)

const (
	pricesKey    = "model_prices"
	userKeyFmt   = "user:%s"
	unitExponent = 4
)

// debitScript creates the account at the default balance when missing and
// applies the debit floored at zero, atomically on the server.
//
//nolint:gochecknoglobals // Compiled once, shared by all stores
var debitScript = redis.NewScript(`
local balance = redis.call('HGET', KEYS[1], 'balance_units')
if not balance then
  redis.call('HSET', KEYS[1], 'id', ARGV[3], 'name', '', 'email', '', 'role', ARGV[4])
  balance = tonumber(ARGV[2])
else
  balance = tonumber(balance)
end
local updated = balance - tonumber(ARGV[1])
if updated < 0 then
  updated = 0
end
redis.call('HSET', KEYS[1], 'balance_units', updated)
return updated
`)

// createScript inserts the account unless the key already exists.
//
//nolint:gochecknoglobals // Compiled once, shared by all stores
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'name', ARGV[2], 'email', ARGV[3], 'role', ARGV[4], 'balance_units', ARGV[5])
return 1
`)

// Store is a Redis-backed ledger.
type Store struct {
	client redis.UniversalClient
}

// NewStore wraps client.
func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

type priceRecord struct {
	InputPrice  decimal.Decimal `json:"input_price"`
	OutputPrice decimal.Decimal `json:"output_price"`
}

// MarshalBinary implements encoding.BinaryMarshaler for Redis.
func (p priceRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

// ListPrices returns every stored price entry.
func (s *Store) ListPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	fields, err := s.client.HGetAll(ctx, pricesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read prices: %w", err)
	}

	entries := make([]domain.PriceEntry, 0, len(fields))
	for model, raw := range fields {
		entry, err := decodePrice(model, raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// GetPrice returns the entry for a model.
func (s *Store) GetPrice(ctx context.Context, model string) (domain.PriceEntry, error) {
	raw, err := s.client.HGet(ctx, pricesKey, model).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PriceEntry{}, domain.ErrPriceNotFound
		}
		return domain.PriceEntry{}, fmt.Errorf("failed to read price: %w", err)
	}

	return decodePrice(model, raw)
}

// UpsertPrices replaces entries by model name with a single HSET.
func (s *Store) UpsertPrices(ctx context.Context, entries []domain.PriceEntry) error {
	if len(entries) == 0 {
		return nil
	}

	values := make([]any, 0, len(entries)*2)
	for _, entry := range entries {
		values = append(values, entry.Model, priceRecord{
			InputPrice:  entry.InputPrice,
			OutputPrice: entry.OutputPrice,
		})
	}

	if err := s.client.HSet(ctx, pricesKey, values...).Err(); err != nil {
		return fmt.Errorf("failed to upsert prices: %w", err)
	}

	return nil
}

// GetUser returns the stored account.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.UserAccount, error) {
	fields, err := s.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrUserNotFound
	}

	units, err := strconv.ParseInt(fields["balance_units"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance of %s: %w", id, err)
	}

	return &domain.UserAccount{
		ID:      id,
		Name:    fields["name"],
		Email:   fields["email"],
		Role:    fields["role"],
		Balance: FromUnits(units),
	}, nil
}

// CreateUser inserts account unless the id is taken and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, account *domain.UserAccount) (*domain.UserAccount, error) {
	err := createScript.Run(ctx, s.client, []string{userKey(account.ID)},
		account.ID, account.Name, account.Email, account.Role, ToUnits(account.Balance),
	).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetUser(ctx, account.ID)
}

// Debit applies cost to the balance of id through debitScript.
func (s *Store) Debit(ctx context.Context, id string, cost decimal.Decimal) (decimal.Decimal, error) {
	units, err := debitScript.Run(ctx, s.client, []string{userKey(id)},
		ToUnits(cost), ToUnits(domain.DefaultBalance), id, domain.DefaultRole,
	).Int64()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to debit user: %w", err)
	}

	return FromUnits(units), nil
}

// ToUnits converts an amount to whole ten-thousandths, rounding half away
// from zero.
func ToUnits(amount decimal.Decimal) int64 {
	return amount.Round(unitExponent).Shift(unitExponent).IntPart()
}

// FromUnits converts ten-thousandths back to an amount.
func FromUnits(units int64) decimal.Decimal {
	return decimal.New(units, -unitExponent)
}

func userKey(id string) string {
	return fmt.Sprintf(userKeyFmt, id)
}

func decodePrice(model, raw string) (domain.PriceEntry, error) {
	var record priceRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return domain.PriceEntry{}, fmt.Errorf("failed to decode price of %s: %w", model, err)
	}

	return domain.PriceEntry{
		Model:       model,
		InputPrice:  record.InputPrice,
		OutputPrice: record.OutputPrice,
	}, nil
}
