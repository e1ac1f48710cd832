// Package sqlite implements the ledger and price store on an embedded
// SQLite database using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO required)

	"github.com/davidbz/tokenmeter/internal/domain"
)

// Money columns hold canonical decimal text so no value passes through a
// binary float.
//
//nolint:gochecknoglobals // Ordered migration list
var migrations = []struct {
	version int
	sql     string
}{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS model_prices (
    model_name   TEXT PRIMARY KEY,
    input_price  TEXT NOT NULL,
    output_price TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id      TEXT PRIMARY KEY,
    name    TEXT NOT NULL DEFAULT '',
    email   TEXT NOT NULL DEFAULT '',
    role    TEXT NOT NULL DEFAULT 'user',
    balance TEXT NOT NULL DEFAULT '10'
);
`,
	},
}

// Store is a SQLite-backed ledger. It holds a single connection, so every
// statement and transaction is serialized; a debit runs its read and write
// in one transaction and cannot interleave with another debit.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and applies pending
// migrations.
func NewStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout=5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate applies any unapplied migrations in order.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_versions (
        version    INTEGER PRIMARY KEY,
        applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_versions WHERE version = ?`, m.version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if count > 0 {
			continue
		}

		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}

		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_versions(version) VALUES(?)`, m.version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}

	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// ListPrices returns every stored price entry.
func (s *Store) ListPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT model_name, input_price, output_price FROM model_prices`)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
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
		return nil, fmt.Errorf("iterate prices: %w", err)
	}

	return entries, nil
}

// GetPrice returns the entry for a model.
func (s *Store) GetPrice(ctx context.Context, model string) (domain.PriceEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT model_name, input_price, output_price FROM model_prices WHERE model_name = ?`, model)

	entry, err := scanPrice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PriceEntry{}, domain.ErrPriceNotFound
	}

	return entry, err
}

// UpsertPrices replaces entries by model name in one transaction.
func (s *Store) UpsertPrices(ctx context.Context, entries []domain.PriceEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO model_prices VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.Model, entry.InputPrice.String(), entry.OutputPrice.String()); err != nil {
			return fmt.Errorf("upsert price %s: %w", entry.Model, err)
		}
	}

	return tx.Commit()
}

// GetUser returns the stored account.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.UserAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, email, role, balance FROM users WHERE id = ?`, id)

	account, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}

	return account, err
}

// CreateUser inserts account unless the id is taken and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, account *domain.UserAccount) (*domain.UserAccount, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, balance) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		account.ID, account.Name, account.Email, account.Role, account.Balance.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	stored, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT id, name, email, role, balance FROM users WHERE id = ?`, account.ID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return stored, nil
}

// Debit applies cost to the balance of id, creating the account first when
// it does not exist.
func (s *Store) Debit(ctx context.Context, id string, cost decimal.Decimal) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = ?`, id).Scan(&raw)

	var balance decimal.Decimal
	switch {
	case errors.Is(err, sql.ErrNoRows):
		balance = domain.Debit(domain.DefaultBalance, cost)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, name, email, role, balance) VALUES (?, '', '', ?, ?)`,
			id, domain.DefaultRole, balance.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("insert user: %w", err)
		}
	case err != nil:
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	default:
		current, parseErr := decimal.NewFromString(raw)
		if parseErr != nil {
			return decimal.Zero, fmt.Errorf("parse balance of %s: %w", id, parseErr)
		}
		balance = domain.Debit(current, cost)
		if _, err := tx.ExecContext(ctx, `UPDATE users SET balance = ? WHERE id = ?`, balance.String(), id); err != nil {
			return decimal.Zero, fmt.Errorf("update balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit: %w", err)
	}

	return balance, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrice(row rowScanner) (domain.PriceEntry, error) {
	var entry domain.PriceEntry
	var input, output string
	if err := row.Scan(&entry.Model, &input, &output); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entry, err
		}
		return entry, fmt.Errorf("scan price: %w", err)
	}

	var err error
	if entry.InputPrice, err = decimal.NewFromString(input); err != nil {
		return entry, fmt.Errorf("parse input price of %s: %w", entry.Model, err)
	}
	if entry.OutputPrice, err = decimal.NewFromString(output); err != nil {
		return entry, fmt.Errorf("parse output price of %s: %w", entry.Model, err)
	}

	return entry, nil
}

func scanUser(row rowScanner) (*domain.UserAccount, error) {
	var account domain.UserAccount
	var balance string
	if err := row.Scan(&account.ID, &account.Name, &account.Email, &account.Role, &balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance of %s: %w", account.ID, err)
	}
	account.Balance = parsed

	return &account, nil
}
