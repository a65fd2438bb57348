// Package metrics holds the process-wide Prometheus collectors exposed on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MovementsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "movements_recorded_total",
		Help:      "Movements appended to the ledger, by kind.",
	}, []string{"kind"})

	NegativeStock = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "negative_stock_total",
		Help:      "Writes that left an item with negative stock-on-hand.",
	})

	LowStock = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "low_stock_total",
		Help:      "Writes that left an item below its minimum stock.",
	})

	APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "api_errors_total",
		Help:      "API responses with an error body, by error kind.",
	}, []string{"kind"})
)
