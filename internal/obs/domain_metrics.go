package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// UpstreamCallsTotal counts shop API calls by operation and outcome.
	UpstreamCallsTotal *prometheus.CounterVec
	// UpstreamCallLatency records shop API call latency in milliseconds.
	UpstreamCallLatency *prometheus.HistogramVec
	// DeliverySelectionsTotal counts delivery option selections by outcome.
	DeliverySelectionsTotal *prometheus.CounterVec
	// StaleResponsesTotal counts upstream responses dropped because a newer
	// mutation for the same cart line superseded them. Op "reload" counts
	// reloads overtaken by a later reload for another line.
	StaleResponsesTotal *prometheus.CounterVec
	// CheckoutValidationFailures counts rejected checkout form submissions.
	CheckoutValidationFailures prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		UpstreamCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_calls_total",
			Help:      "Count of shop API calls by operation and result.",
		}, []string{"op", "result"})
		UpstreamCallLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_call_duration_ms",
			Help:      "Latency of shop API calls in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"op"})
		DeliverySelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_selections_total",
			Help:      "Count of delivery option selections by persistence outcome.",
		}, []string{"result"})
		StaleResponsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Upstream responses discarded because a newer mutation superseded them.",
		}, []string{"op"})
		CheckoutValidationFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_validation_failures_total",
			Help:      "Checkout form submissions rejected by validation.",
		})

		mustRegisterCollector(reg, UpstreamCallsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				UpstreamCallsTotal = v
			}
		})
		mustRegisterCollector(reg, UpstreamCallLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				UpstreamCallLatency = v
			}
		})
		mustRegisterCollector(reg, DeliverySelectionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DeliverySelectionsTotal = v
			}
		})
		mustRegisterCollector(reg, StaleResponsesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				StaleResponsesTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutValidationFailures, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CheckoutValidationFailures = v
			}
		})
	})
}

// ObserveUpstream records one shop API call. Safe to call before registration.
func ObserveUpstream(op, result string, took time.Duration) {
	if UpstreamCallsTotal != nil {
		UpstreamCallsTotal.WithLabelValues(op, result).Inc()
	}
	if UpstreamCallLatency != nil {
		UpstreamCallLatency.WithLabelValues(op).Observe(DurationMillis(took))
	}
}

// CountSelection records the persistence outcome of a delivery selection.
func CountSelection(result string) {
	if DeliverySelectionsTotal != nil {
		DeliverySelectionsTotal.WithLabelValues(result).Inc()
	}
}

// CountStaleResponse records a superseded upstream response.
func CountStaleResponse(op string) {
	if StaleResponsesTotal != nil {
		StaleResponsesTotal.WithLabelValues(op).Inc()
	}
}

// CountValidationFailure records a rejected checkout form.
func CountValidationFailure() {
	if CheckoutValidationFailures != nil {
		CheckoutValidationFailures.Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
