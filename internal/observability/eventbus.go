package observability

import (
	"context"

	"go.uber.org/zap"

	"github.com/davidbz/tokenmeter/internal/events"
)

// EventBus implements the EventPublisher interface. Every event is logged
// and the known ones also update the Prometheus collectors.
type EventBus struct {
	logger *zap.Logger
}

// NewEventBus creates a new event bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		logger: logger,
	}
}

// Publish publishes an event with the given type and data.
func (e *EventBus) Publish(_ context.Context, eventType string, data map[string]interface{}) {
	record(eventType, data)

	if e.logger == nil {
		return
	}

	fields := make([]zap.Field, 0, len(data)+1)
	fields = append(fields, zap.String("event", eventType))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}

	e.logger.Debug("event published", fields...)
}

func record(eventType string, data map[string]interface{}) {
	switch eventType {
	case events.UsageRecorded:
		model, _ := data["model"].(string)
		UsageEventsTotal.WithLabelValues(model).Inc()
		if in, ok := data["input_tokens"].(int); ok {
			TokensTotal.WithLabelValues(model, "input").Add(float64(in))
		}
		if out, ok := data["output_tokens"].(int); ok {
			TokensTotal.WithLabelValues(model, "output").Add(float64(out))
		}
		if cost, ok := data["cost"].(float64); ok {
			CostTotal.WithLabelValues(model).Add(cost)
		}
	case events.BalanceUpdateFailed:
		BalanceUpdateFailuresTotal.Inc()
	case events.UserCreated:
		UsersCreatedTotal.Inc()
	case events.TokensCounted:
		encoding, _ := data["encoding"].(string)
		TokenizeRequestsTotal.WithLabelValues(encoding).Inc()
	}
}
