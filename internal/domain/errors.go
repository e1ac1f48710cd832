package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPayload indicates a malformed tokenization payload.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidUsage indicates a usage event with negative token counts.
	ErrInvalidUsage = errors.New("invalid usage event")

	// ErrInvalidPrice indicates a price entry that cannot be stored.
	ErrInvalidPrice = errors.New("invalid price entry")

	// ErrStorage indicates a read or write failure against the ledger or catalog.
	ErrStorage = errors.New("storage error")

	// ErrBalanceUpdateFailed is the recoverable storage failure of a debit.
	ErrBalanceUpdateFailed = fmt.Errorf("balance update failed: %w", ErrStorage)

	// ErrUserNotFound is returned by stores when no account has the given id.
	ErrUserNotFound = errors.New("user not found")

	// ErrPriceNotFound is returned by stores when no price exists for a model.
	ErrPriceNotFound = errors.New("price not found")
)

// StorageFailure wraps err so it matches ErrStorage. Errors that already
// match are returned unchanged.
func StorageFailure(err error) error {
	if err == nil || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
