// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// LedgerOperations counts credit and debit attempts by outcome code.
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "peerly",
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Total ledger operations by operation and outcome.",
}, []string{"operation", "outcome"})

// LedgerBalance tracks the current SuperCoin balance.
var LedgerBalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "peerly",
	Subsystem: "ledger",
	Name:      "balance",
	Help:      "Current SuperCoin balance.",
})

// BookingTransitions counts booking status changes.
var BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "peerly",
	Subsystem: "booking",
	Name:      "transitions_total",
	Help:      "Total booking status transitions by source and target status.",
}, []string{"from", "to"})

// NotificationsPushed counts feed entries by type.
var NotificationsPushed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "peerly",
	Subsystem: "notification",
	Name:      "pushed_total",
	Help:      "Total notifications pushed to the feed by type.",
}, []string{"type"})

// StorageWrites counts storage writes seen by the observable decorator.
var StorageWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "peerly",
	Subsystem: "storage",
	Name:      "writes_total",
	Help:      "Total storage writes by key and outcome.",
}, []string{"key", "outcome"})

// IndexedDocuments counts documents mirrored to Elasticsearch.
var IndexedDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "peerly",
	Subsystem: "indexer",
	Name:      "documents_total",
	Help:      "Total documents sent to Elasticsearch by index and outcome.",
}, []string{"index", "outcome"})

// RelayedMessages counts notifications posted to Discord.
var RelayedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "peerly",
	Subsystem: "relay",
	Name:      "messages_total",
	Help:      "Total notifications relayed to Discord by outcome.",
}, []string{"outcome"})

// Outcome maps an error to an outcome label
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
