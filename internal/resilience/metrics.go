package resilience

import "github.com/prometheus/client_golang/prometheus"

// Collectors for calls to the shop API. The target label is the breaker's
// target ("shop-api" in the storefront).
var (
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_upstream_breaker_state",
			Help: "Breaker state per upstream: 0=closed,1=open,2=half-open",
		},
		[]string{"target"},
	)
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_upstream_breaker_transition_total",
			Help: "Breaker state transitions per upstream",
		},
		[]string{"target", "from", "to"},
	)
	BreakerOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_upstream_breaker_open_total",
			Help: "Times a breaker opened per upstream",
		},
		[]string{"target"},
	)
	// BreakerRejectedTotal counts calls refused without reaching the upstream.
	BreakerRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_upstream_breaker_rejected_total",
			Help: "Calls short-circuited by an open breaker per upstream",
		},
		[]string{"target"},
	)
	// RetriesTotal counts repeat attempts of safe requests by method.
	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_upstream_retries_total",
			Help: "Retried upstream attempts per upstream and method",
		},
		[]string{"target", "method"},
	)
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal, BreakerRejectedTotal, RetriesTotal)
}
