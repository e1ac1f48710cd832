package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/davidbz/tokenmeter/internal/observability"
)

// DefaultRole is assigned to accounts created without a role.
const DefaultRole = "user"

// UserRegistry materializes user accounts on first contact.
type UserRegistry struct {
	ledger LedgerStore
	events EventPublisher
	tracer trace.Tracer
}

// NewUserRegistry creates a new user registry (DI constructor).
func NewUserRegistry(ledger LedgerStore, events EventPublisher, tracer trace.Tracer) *UserRegistry {
	return &UserRegistry{
		ledger: ledger,
		events: events,
		tracer: tracer,
	}
}

// EnsureUser returns the stored account of candidate, creating it with the
// default balance when it does not exist yet. A repeated call never
// overwrites stored fields. A nil candidate or one without an id yields an
// ephemeral zero-balance account and touches no storage.
func (r *UserRegistry) EnsureUser(ctx context.Context, candidate *UserCandidate) (*UserAccount, error) {
	if candidate == nil || candidate.ID == "" {
		return &UserAccount{Balance: decimal.Zero}, nil
	}

	ctx = observability.WithUserID(ctx, candidate.ID)
	ctx, span := r.tracer.Start(ctx, "users.ensure")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", candidate.ID))

	account, err := r.ledger.GetUser(ctx, candidate.ID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get user %s: %w", candidate.ID, StorageFailure(err))
	}

	created, err := r.ledger.CreateUser(ctx, NewUserAccount(candidate))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create user %s: %w", candidate.ID, StorageFailure(err))
	}

	observability.FromContext(ctx).Info("user created",
		zap.String("balance", FormatMoney(created.Balance)),
	)
	if r.events != nil {
		r.events.Publish(ctx, EventUserCreated, map[string]interface{}{
			"user_id": created.ID,
		})
	}

	return created, nil
}

// NewUserAccount builds the initial account for a candidate.
func NewUserAccount(candidate *UserCandidate) *UserAccount {
	role := candidate.Role
	if role == "" {
		role = DefaultRole
	}

	return &UserAccount{
		ID:      candidate.ID,
		Name:    candidate.Name,
		Email:   candidate.Email,
		Role:    role,
		Balance: DefaultBalance,
	}
}
