// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_reconciliations_total",
			Help: "Recipe association reconciliations by result (ok, invalid, error).",
		},
		[]string{"result"},
	)

	ReconciliationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_reconciliation_duration_seconds",
			Help:    "Time spent reconciling a recipe's ingredient and tag links.",
			Buckets: prometheus.DefBuckets,
		},
	)

	LinkMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_link_mutations_total",
			Help: "Link rows written by reconciliation, by table and operation.",
		},
		[]string{"table", "op"},
	)

	TransactionRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_transaction_retries_total",
			Help: "Transactions retried after a concurrent uniqueness violation.",
		},
	)
)
