package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/davidbz/tokenmeter/internal/observability"
)

// summaryFormat is the line appended to assistant replies by the chat filter.
const summaryFormat = "\n\n输入 %d tokens，输出 %d tokens，总费用 ¥%s，账户余额 ¥%s"

// BillingEngine prices usage events and debits user balances.
type BillingEngine struct {
	calculator CostCalculator
	ledger     LedgerStore
	events     EventPublisher
	tracer     trace.Tracer
}

// NewBillingEngine creates a new billing engine (DI constructor).
func NewBillingEngine(
	calculator CostCalculator,
	ledger LedgerStore,
	events EventPublisher,
	tracer trace.Tracer,
) *BillingEngine {
	return &BillingEngine{
		calculator: calculator,
		ledger:     ledger,
		events:     events,
		tracer:     tracer,
	}
}

// RecordUsage computes the cost of event and applies it to the user's balance.
//
// A failed debit does not fail the call: the receipt still carries the cost,
// reports a zero balance and sets BalanceErr. Without a user id nothing is
// persisted and the reported balance is zero.
func (b *BillingEngine) RecordUsage(ctx context.Context, event UsageEvent) (*UsageReceipt, error) {
	usage := Usage{InputTokens: event.InputTokens, OutputTokens: event.OutputTokens}
	if err := usage.Validate(); err != nil {
		return nil, err
	}

	ctx = observability.WithModel(ctx, event.Model)
	ctx = observability.WithUserID(ctx, event.UserID)

	ctx, span := b.tracer.Start(ctx, "billing.record_usage")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", event.UserID),
		attribute.String("model", event.Model),
		attribute.Int("input_tokens", event.InputTokens),
		attribute.Int("output_tokens", event.OutputTokens),
	)

	logger := observability.FromContext(ctx)

	price, cost := b.calculator.Calculate(ctx, event.Model, usage)
	receipt := &UsageReceipt{
		Cost:       cost,
		Balance:    decimal.Zero,
		Summary:    "",
		BalanceErr: nil,
	}

	if event.UserID != "" {
		balance, err := b.ledger.Debit(ctx, event.UserID, cost)
		if err != nil {
			receipt.BalanceErr = fmt.Errorf("%w: %w", ErrBalanceUpdateFailed, err)

			logger.Error("balance update failed, reporting zero balance",
				zap.String("cost", FormatMoney(cost)),
				zap.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "balance update failed")

			b.publish(ctx, EventBalanceUpdateFailed, map[string]interface{}{
				"user_id": event.UserID,
				"model":   event.Model,
				"cost":    FormatMoney(cost),
			})
		} else {
			receipt.Balance = balance
		}
	}

	receipt.Summary = FormatSummary(usage, receipt.Cost, receipt.Balance)

	logger.Info("usage recorded",
		zap.Int("input_tokens", usage.InputTokens),
		zap.Int("output_tokens", usage.OutputTokens),
		zap.String("input_price", price.InputPrice.String()),
		zap.String("output_price", price.OutputPrice.String()),
		zap.String("cost", FormatMoney(receipt.Cost)),
		zap.String("balance", FormatMoney(receipt.Balance)),
	)
	span.SetAttributes(attribute.String("cost", FormatMoney(receipt.Cost)))

	b.publish(ctx, EventUsageRecorded, map[string]interface{}{
		"model":         event.Model,
		"input_tokens":  usage.InputTokens,
		"output_tokens": usage.OutputTokens,
		"cost":          receipt.Cost.InexactFloat64(),
	})

	return receipt, nil
}

func (b *BillingEngine) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if b.events == nil {
		return
	}
	b.events.Publish(ctx, eventType, data)
}

// FormatSummary renders the human-readable usage line.
func FormatSummary(usage Usage, cost, balance decimal.Decimal) string {
	return fmt.Sprintf(summaryFormat,
		usage.InputTokens,
		usage.OutputTokens,
		FormatMoney(cost),
		FormatMoney(balance),
	)
}
