package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Billing metrics exposed on /metrics.
//
//nolint:gochecknoglobals // Collectors register once with the default registry
var (
	UsageEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenmeter_usage_events_total",
			Help: "Total number of usage events recorded",
		},
		[]string{"model"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenmeter_tokens_total",
			Help: "Total number of billed tokens",
		},
		[]string{"model", "type"}, // type: input/output
	)

	CostTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenmeter_cost_total",
			Help: "Total cost charged, in catalog currency units",
		},
		[]string{"model"},
	)

	BalanceUpdateFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenmeter_balance_update_failures_total",
			Help: "Total number of debits that could not be persisted",
		},
	)

	UsersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenmeter_users_created_total",
			Help: "Total number of user accounts created",
		},
	)

	TokenizeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenmeter_tokenize_requests_total",
			Help: "Total number of tokenization requests by encoding",
		},
		[]string{"encoding"},
	)
)
