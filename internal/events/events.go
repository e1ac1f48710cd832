// Package events names the event types published by the domain services
// and counted by the observability layer.
package events

const (
	UsageRecorded       = "usage.recorded"
	BalanceUpdateFailed = "usage.balance_update_failed"
	UserCreated         = "user.created"
	TokensCounted       = "tokens.counted"
)
