package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// Prices are quoted per 10^6 tokens.
	priceUnitExponent = 6

	// Costs and balances are kept to 4 decimal places.
	moneyPlaces = 4
)

// DefaultBalance is the starting balance of every new account.
//
//nolint:gochecknoglobals // Immutable decimal constant
var DefaultBalance = decimal.NewFromInt(10)

// Usage is the token consumption of one model call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Validate rejects negative token counts.
func (u Usage) Validate() error {
	if u.InputTokens < 0 || u.OutputTokens < 0 {
		return fmt.Errorf("%w: token counts must be non-negative, got input=%d output=%d",
			ErrInvalidUsage, u.InputTokens, u.OutputTokens)
	}
	return nil
}

// CostCalculator calculates cost based on token usage.
type CostCalculator interface {
	// Calculate returns the price applied and the total cost for a model and usage.
	Calculate(ctx context.Context, model string, usage Usage) (PriceEntry, decimal.Decimal)
}

// StandardCostCalculator implements per-million-token cost calculation.
type StandardCostCalculator struct {
	catalog PriceLookup
}

// NewStandardCostCalculator creates a new cost calculator.
func NewStandardCostCalculator(catalog PriceLookup) *StandardCostCalculator {
	return &StandardCostCalculator{
		catalog: catalog,
	}
}

// Calculate computes the total cost based on token usage and model pricing.
// Unknown models are charged the fallback price.
func (c *StandardCostCalculator) Calculate(
	ctx context.Context,
	model string,
	usage Usage,
) (PriceEntry, decimal.Decimal) {
	price := c.catalog.Lookup(ctx, model)
	return price, Cost(price, usage)
}

// Cost returns (input*inputPrice + output*outputPrice) / 1e6 rounded half
// away from zero to 4 places.
func Cost(price PriceEntry, usage Usage) decimal.Decimal {
	inputCost := decimal.NewFromInt(int64(usage.InputTokens)).Mul(price.InputPrice)
	outputCost := decimal.NewFromInt(int64(usage.OutputTokens)).Mul(price.OutputPrice)

	return inputCost.Add(outputCost).Shift(-priceUnitExponent).Round(moneyPlaces)
}

// Debit returns balance minus cost, floored at zero.
func Debit(balance, cost decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, balance.Sub(cost))
}

// FormatMoney renders an amount with exactly 4 decimal places.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(moneyPlaces)
}
