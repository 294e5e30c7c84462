// Package metrics provides Prometheus metrics collection for voxgate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for voxgate.
type Collector struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Auth metrics
	AuthFailures *prometheus.CounterVec

	// Streaming metrics
	ActiveStreams prometheus.Gauge
	StreamTokens  *prometheus.CounterVec

	// Accounting metrics
	ProviderCost        *prometheus.CounterVec
	UsageCommitFailures prometheus.Counter
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector on a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voxgate",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "voxgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voxgate",
				Name:      "auth_failures_total",
				Help:      "Total number of authentication failures",
			},
			[]string{"reason"},
		),
		ActiveStreams: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "voxgate",
				Name:      "active_streams",
				Help:      "Number of chat completion streams currently open",
			},
		),
		StreamTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voxgate",
				Name:      "stream_tokens_total",
				Help:      "Total tokens accounted across completed streams",
			},
			[]string{"provider", "source"},
		),
		ProviderCost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voxgate",
				Name:      "provider_cost_usd_total",
				Help:      "Total USD cost accrued per provider",
			},
			[]string{"provider", "type"},
		),
		UsageCommitFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "voxgate",
				Name:      "usage_commit_failures_total",
				Help:      "Total usage records that failed to persist after stream end",
			},
		),
	}
}
