package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// fallbackUnitPrice is charged for models missing from the catalog. It is set
// high on purpose so unpriced models are not used by accident.
const fallbackUnitPrice = 60

// PriceLookup resolves the price of a model.
type PriceLookup interface {
	// Lookup returns the price entry for a model. It never fails: unknown
	// models resolve to FallbackPrice.
	Lookup(ctx context.Context, model string) PriceEntry
}

// FallbackPrice returns the entry used for a model with no stored price.
func FallbackPrice(model string) PriceEntry {
	return PriceEntry{
		Model:       model,
		InputPrice:  decimal.NewFromInt(fallbackUnitPrice),
		OutputPrice: decimal.NewFromInt(fallbackUnitPrice),
	}
}

// Validate reports whether the entry can be stored.
func (p PriceEntry) Validate() error {
	if p.Model == "" {
		return fmt.Errorf("%w: model name cannot be empty", ErrInvalidPrice)
	}
	if p.InputPrice.IsNegative() || p.OutputPrice.IsNegative() {
		return fmt.Errorf("%w: negative price for model %s", ErrInvalidPrice, p.Model)
	}
	return nil
}
