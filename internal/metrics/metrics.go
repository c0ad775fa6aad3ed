// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Registry = prometheus.NewRegistry()

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// SalesTotal counts sale outcomes: committed, replayed, rejected,
	// aborted, reconciliation.
	SalesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadesk_sales_total",
			Help: "Sale attempts by outcome",
		},
		[]string{"outcome"},
	)

	StoreRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pharmadesk_store_retries_total",
			Help: "Store writes retried after a transient failure",
		},
	)

	StockCompensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadesk_stock_compensations_total",
			Help: "Stock releases issued while rolling back a sale",
		},
		[]string{"result"},
	)

	AlertsUpserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmadesk_alerts_upserted_total",
			Help: "Notification upserts by alert scans, by outcome (inserted, refreshed, skipped)",
		},
		[]string{"type", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SalesTotal,
		StoreRetries,
		StockCompensations,
		AlertsUpserted,
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
