// Package memory implements an in-process ledger and price store.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/davidbz/tokenmeter/internal/domain"
)

// Store keeps prices and accounts in maps. Balance updates for one user are
// serialized by a per-user mutex; different users do not contend.
type Store struct {
	mu     sync.RWMutex
	prices map[string]domain.PriceEntry
	users  map[string]domain.UserAccount

	// user id -> *sync.Mutex. Entries are never evicted, so the map grows
	// with every id seen; fine for a single-process dev backend.
	locks sync.Map
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		mu:     sync.RWMutex{},
		prices: make(map[string]domain.PriceEntry),
		users:  make(map[string]domain.UserAccount),
		locks:  sync.Map{},
	}
}

// ListPrices returns every stored price entry.
func (s *Store) ListPrices(_ context.Context) ([]domain.PriceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.PriceEntry, 0, len(s.prices))
	for _, entry := range s.prices {
		entries = append(entries, entry)
	}

	return entries, nil
}

// GetPrice returns the entry for a model.
func (s *Store) GetPrice(_ context.Context, model string) (domain.PriceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.prices[model]
	if !exists {
		return domain.PriceEntry{}, domain.ErrPriceNotFound
	}

	return entry, nil
}

// UpsertPrices replaces entries by model name.
func (s *Store) UpsertPrices(_ context.Context, entries []domain.PriceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		s.prices[entry.Model] = entry
	}

	return nil
}

// GetUser returns a copy of the stored account.
func (s *Store) GetUser(_ context.Context, id string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.users[id]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	return &account, nil
}

// CreateUser inserts account unless the id is taken and returns the stored row.
func (s *Store) CreateUser(_ context.Context, account *domain.UserAccount) (*domain.UserAccount, error) {
	lock := s.userLock(account.ID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.users[account.ID]
	if !exists {
		stored = *account
		s.users[account.ID] = stored
	}

	return &stored, nil
}

// Debit applies cost to the balance of id under the user's lock.
func (s *Store) Debit(_ context.Context, id string, cost decimal.Decimal) (decimal.Decimal, error) {
	lock := s.userLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	account, exists := s.users[id]
	s.mu.RUnlock()

	if !exists {
		account = *domain.NewUserAccount(&domain.UserCandidate{ID: id})
	}
	account.Balance = domain.Debit(account.Balance, cost)

	s.mu.Lock()
	s.users[id] = account
	s.mu.Unlock()

	return account.Balance, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) userLock(id string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex) //nolint:forcetypeassert // Only mutexes are stored
}
