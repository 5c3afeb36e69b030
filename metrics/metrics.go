// Package metrics exposes Prometheus instrumentation for the ledger.
//
// Counters are incremented by the API layer and the scheduler; the
// engine itself stays free of instrumentation so it can be embedded
// without Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Total applied ledger transactions",
		},
		[]string{"type"}, // debit|credit
	)

	OverdraftRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_overdraft_rejections_total",
			Help: "Debits rejected by the overdraft limit",
		},
	)

	ReconciliationDiscrepancies = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_reconciliation_discrepancies_total",
			Help: "Discrepancies found by reconciliation runs",
		},
	)

	ActiveAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_active_alerts",
			Help: "Alerts in the most recent low-balance scan",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(OverdraftRejections)
	prometheus.MustRegister(ReconciliationDiscrepancies)
	prometheus.MustRegister(ActiveAlerts)
}
