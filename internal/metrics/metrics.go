// Package metrics holds the Prometheus collectors for the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splitledger"

// Metrics owns a registry and every collector registered on it.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rpcRequests  *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
	rateLimited  *prometheus.CounterVec
	expenses     *prometheus.CounterVec
	settlements  prometheus.Counter
	cascade      *prometheus.CounterVec
	blobFailures *prometheus.CounterVec
}

// New creates a Metrics with a fresh registry, including the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total number of RPCs handled.",
			},
			[]string{"procedure", "code"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Duration of RPCs.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"procedure"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "rate_limited_total",
				Help:      "RPCs rejected by the rate limiter.",
			},
			[]string{"procedure"},
		),
		expenses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "expenses_total",
				Help:      "Expenses created and deleted.",
			},
			[]string{"op"},
		),
		settlements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "settlements_created_total",
				Help:      "Settlements recorded.",
			},
		),
		cascade: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "settlement_cascade_total",
				Help:      "Settlements touched by expense deletion.",
			},
			[]string{"action"},
		),
		blobFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "blob",
				Name:      "failures_total",
				Help:      "Blob store operations that failed.",
			},
			[]string{"op"},
		),
	}

	m.registry.MustRegister(
		m.rpcRequests,
		m.rpcDuration,
		m.rateLimited,
		m.expenses,
		m.settlements,
		m.cascade,
		m.blobFailures,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RateLimited counts an RPC rejected by the limiter.
func (m *Metrics) RateLimited(procedure string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(procedure).Inc()
}

// ExpenseCreated counts a stored expense.
func (m *Metrics) ExpenseCreated() {
	if m == nil {
		return
	}
	m.expenses.WithLabelValues("created").Inc()
}

// ExpenseDeleted counts a deleted expense and the settlements its
// deletion patched or removed.
func (m *Metrics) ExpenseDeleted(patched, deleted int) {
	if m == nil {
		return
	}
	m.expenses.WithLabelValues("deleted").Inc()
	m.cascade.WithLabelValues("patched").Add(float64(patched))
	m.cascade.WithLabelValues("deleted").Add(float64(deleted))
}

// SettlementCreated counts a stored settlement.
func (m *Metrics) SettlementCreated() {
	if m == nil {
		return
	}
	m.settlements.Inc()
}

// BlobFailed counts a failed blob operation ("put", "get", "delete").
func (m *Metrics) BlobFailed(op string) {
	if m == nil {
		return
	}
	m.blobFailures.WithLabelValues(op).Inc()
}
