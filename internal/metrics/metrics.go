// Package metrics holds Prometheus instruments used across the service.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostadmin_active_clients",
			Help: "Number of client sites currently active.",
		})

	SweepRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostadmin_sweep_runs_total",
			Help: "Cumulative number of expiry sweep invocations.",
		})

	SweepDeactivatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostadmin_sweep_deactivated_total",
			Help: "Cumulative number of clients suspended by the expiry sweep.",
		})

	WebhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostadmin_webhook_requests_total",
			Help: "Payment webhook requests by outcome.",
		},
		[]string{"outcome"}, // updated | not_found | invalid | error
	)

	StatusCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostadmin_status_cache_hits_total",
			Help: "Activation-status lookups answered from a fresh cache entry.",
		})

	StatusCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostadmin_status_cache_misses_total",
			Help: "Activation-status lookups that required a store fetch.",
		})

	StatusCacheStaleTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostadmin_status_cache_stale_total",
			Help: "Activation-status lookups served a stale entry after a fetch failure.",
		})

	NotifyFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hostadmin_notify_failures_total",
			Help: "Outbound notification webhook deliveries that failed.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveClients,
		SweepRunsTotal,
		SweepDeactivatedTotal,
		WebhookRequestsTotal,
		StatusCacheHitsTotal,
		StatusCacheMissesTotal,
		StatusCacheStaleTotal,
		NotifyFailuresTotal,
	)
}
