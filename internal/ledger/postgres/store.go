// Package postgres implements the ledger and price store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/davidbz/tokenmeter/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS model_prices (
	model_name   TEXT PRIMARY KEY,
	input_price  NUMERIC NOT NULL CHECK (input_price >= 0),
	output_price NUMERIC NOT NULL CHECK (output_price >= 0)
);

CREATE TABLE IF NOT EXISTS users (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL DEFAULT '',
	email   TEXT NOT NULL DEFAULT '',
	role    TEXT NOT NULL DEFAULT 'user',
	balance NUMERIC NOT NULL DEFAULT 10.0 CHECK (balance >= 0)
);
`

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is a PostgreSQL-backed ledger. Money travels as decimal text and is
// stored as NUMERIC. A debit is one upsert statement, so the row lock taken
// by Postgres serializes concurrent debits of the same user.
type Store struct {
	db    DB
	close func()
}

// NewStore wraps db. closeFn, when not nil, is called by Close.
func NewStore(db DB, closeFn func()) *Store {
	return &Store{db: db, close: closeFn}
}

// EnsureSchema creates the tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

// ListPrices returns every stored price entry.
func (s *Store) ListPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	query := `
		SELECT model_name, input_price::text, output_price::text
		FROM model_prices
		ORDER BY model_name
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var entries []domain.PriceEntry
	for rows.Next() {
		entry, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return entries, nil
}

// GetPrice returns the entry for a model.
func (s *Store) GetPrice(ctx context.Context, model string) (domain.PriceEntry, error) {
	query := `
		SELECT model_name, input_price::text, output_price::text
		FROM model_prices
		WHERE model_name = $1
	`
	entry, err := scanPrice(s.db.QueryRow(ctx, query, model))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PriceEntry{}, domain.ErrPriceNotFound
		}
		return domain.PriceEntry{}, err
	}

	return entry, nil
}

// UpsertPrices replaces entries by model name in a single statement.
func (s *Store) UpsertPrices(ctx context.Context, entries []domain.PriceEntry) error {
	if len(entries) == 0 {
		return nil
	}

	models := make([]string, 0, len(entries))
	inputs := make([]string, 0, len(entries))
	outputs := make([]string, 0, len(entries))
	for _, entry := range entries {
		models = append(models, entry.Model)
		inputs = append(inputs, entry.InputPrice.String())
		outputs = append(outputs, entry.OutputPrice.String())
	}

	query := `
		INSERT INTO model_prices (model_name, input_price, output_price)
		SELECT m, i::numeric, o::numeric
		FROM unnest($1::text[], $2::text[], $3::text[]) AS t(m, i, o)
		ON CONFLICT (model_name) DO UPDATE
		SET input_price = EXCLUDED.input_price, output_price = EXCLUDED.output_price
	`
	if _, err := s.db.Exec(ctx, query, models, inputs, outputs); err != nil {
		return fmt.Errorf("failed to upsert prices: %w", err)
	}

	return nil
}

// GetUser returns the stored account.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.UserAccount, error) {
	query := `SELECT id, name, email, role, balance::text FROM users WHERE id = $1`

	account, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return account, nil
}

// CreateUser inserts account unless the id is taken and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, account *domain.UserAccount) (*domain.UserAccount, error) {
	query := `
		INSERT INTO users (id, name, email, role, balance)
		VALUES ($1, $2, $3, $4, $5::numeric)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.Exec(ctx, query,
		account.ID, account.Name, account.Email, account.Role, account.Balance.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetUser(ctx, account.ID)
}

// Debit applies cost to the balance of id, creating the account at the
// default balance first when it does not exist.
func (s *Store) Debit(ctx context.Context, id string, cost decimal.Decimal) (decimal.Decimal, error) {
	query := `
		INSERT INTO users (id, name, email, role, balance)
		VALUES ($1, '', '', $2, GREATEST(0, $3::numeric - $4::numeric))
		ON CONFLICT (id) DO UPDATE
		SET balance = GREATEST(0, users.balance - $4::numeric)
		RETURNING balance::text
	`
	var raw string
	err := s.db.QueryRow(ctx, query,
		id, domain.DefaultRole, domain.DefaultBalance.String(), cost.String(),
	).Scan(&raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to debit user: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance %q: %w", raw, err)
	}

	return balance, nil
}

func scanPrice(row pgx.Row) (domain.PriceEntry, error) {
	var entry domain.PriceEntry
	var input, output string
	if err := row.Scan(&entry.Model, &input, &output); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entry, err
		}
		return entry, fmt.Errorf("failed to scan price: %w", err)
	}

	var err error
	if entry.InputPrice, err = decimal.NewFromString(input); err != nil {
		return entry, fmt.Errorf("failed to parse input price of %s: %w", entry.Model, err)
	}
	if entry.OutputPrice, err = decimal.NewFromString(output); err != nil {
		return entry, fmt.Errorf("failed to parse output price of %s: %w", entry.Model, err)
	}

	return entry, nil
}

func scanUser(row pgx.Row) (*domain.UserAccount, error) {
	var account domain.UserAccount
	var balance string
	if err := row.Scan(&account.ID, &account.Name, &account.Email, &account.Role, &balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance of %s: %w", account.ID, err)
	}
	account.Balance = parsed

	return &account, nil
}
