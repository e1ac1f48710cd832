package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/tokenmeter/internal/observability"
)

// PriceCatalog keeps an in-memory view of the stored price table.
// Writes go to the store first and then to the view, so a successful
// Upsert is visible to the next Lookup.
type PriceCatalog struct {
	store PriceStore

	mu      sync.RWMutex
	pricing map[string]PriceEntry
}

// NewPriceCatalog creates an empty catalog backed by store.
func NewPriceCatalog(store PriceStore) *PriceCatalog {
	return &PriceCatalog{
		store:   store,
		mu:      sync.RWMutex{},
		pricing: make(map[string]PriceEntry),
	}
}

// Lookup returns the price for an exact model name, or FallbackPrice.
func (c *PriceCatalog) Lookup(_ context.Context, model string) PriceEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.pricing[model]
	if !exists {
		return FallbackPrice(model)
	}

	return entry
}

// Seed upserts entries into the store and the view. Calling it again with
// the same entries leaves the catalog unchanged. When a model appears more
// than once the last entry wins.
func (c *PriceCatalog) Seed(ctx context.Context, entries []PriceEntry) error {
	entries, err := dedupe(entries)
	if err != nil {
		return err
	}

	if err := c.store.UpsertPrices(ctx, entries); err != nil {
		return fmt.Errorf("failed to seed prices: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range entries {
		c.pricing[entry.Model] = entry
	}

	return nil
}

// Upsert stores a single entry, replacing the existing price of the model.
func (c *PriceCatalog) Upsert(ctx context.Context, entry PriceEntry) error {
	return c.Seed(ctx, []PriceEntry{entry})
}

// Refresh rebuilds the view from the store.
func (c *PriceCatalog) Refresh(ctx context.Context) error {
	entries, err := c.store.ListPrices(ctx)
	if err != nil {
		return fmt.Errorf("failed to load prices: %w", err)
	}

	pricing := make(map[string]PriceEntry, len(entries))
	for _, entry := range entries {
		pricing[entry.Model] = entry
	}

	c.mu.Lock()
	c.pricing = pricing
	c.mu.Unlock()

	return nil
}

// List returns the entries of the view sorted by model name.
func (c *PriceCatalog) List(_ context.Context) []PriceEntry {
	c.mu.RLock()
	entries := make([]PriceEntry, 0, len(c.pricing))
	for _, entry := range c.pricing {
		entries = append(entries, entry)
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Model < entries[j].Model
	})

	return entries
}

// Run refreshes the view every interval until ctx is done, so edits made
// directly in the database show up without a restart.
func (c *PriceCatalog) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				observability.FromContext(ctx).Warn("price catalog refresh failed", zap.Error(err))
			}
		}
	}
}

// dedupe validates entries and keeps the last one per model, in first-seen order.
func dedupe(entries []PriceEntry) ([]PriceEntry, error) {
	index := make(map[string]int, len(entries))
	unique := make([]PriceEntry, 0, len(entries))

	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		if i, seen := index[entry.Model]; seen {
			unique[i] = entry
			continue
		}
		index[entry.Model] = len(unique)
		unique = append(unique, entry)
	}

	return unique, nil
}
