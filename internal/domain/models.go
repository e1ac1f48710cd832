package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PriceEntry holds the unit prices of one model, in currency units per 1M tokens.
type PriceEntry struct {
	Model       string          `json:"model_name"`
	InputPrice  decimal.Decimal `json:"input_price"`
	OutputPrice decimal.Decimal `json:"output_price"`
}

// UserAccount is the persisted balance record of a user.
type UserAccount struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Role    string          `json:"role"`
	Balance decimal.Decimal `json:"balance"`
}

// UserCandidate is the user payload supplied by the chat frontend.
// Only ID is required; the rest are optional.
type UserCandidate struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// UsageEvent is one billing-relevant model call.
type UsageEvent struct {
	UserID       string
	Model        string
	InputTokens  int
	OutputTokens int
}

// UsageReceipt is the outcome of recording a usage event.
type UsageReceipt struct {
	Cost    decimal.Decimal
	Balance decimal.Decimal
	Summary string

	// BalanceErr is set when the cost was computed but the debit could not be
	// persisted. It matches ErrBalanceUpdateFailed.
	BalanceErr error
}

// PayloadKind selects how a tokenization payload is interpreted.
type PayloadKind string

const (
	// PayloadChat is an ordered array of messages with a string content.
	PayloadChat PayloadKind = "chat"

	// PayloadRaw is a plain string or any JSON value.
	PayloadRaw PayloadKind = "raw"
)

// ParsePayloadKind maps the client-supplied type to a payload kind.
// Everything that is not "chat" is counted as raw.
func ParsePayloadKind(kind string) PayloadKind {
	if kind == string(PayloadChat) {
		return PayloadChat
	}
	return PayloadRaw
}

// TokenizeRequest asks for the token count of a payload under a model.
type TokenizeRequest struct {
	Payload json.RawMessage
	Kind    PayloadKind
	Model   string
}
