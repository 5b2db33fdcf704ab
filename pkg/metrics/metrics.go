// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// InvoicesProcessed counts parse attempts by outcome ("ok", "error").
	InvoicesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoices_processed_total",
		Help: "Number of invoice PDFs processed, by outcome.",
	}, []string{"outcome"})

	// InvoicesMismatched counts records whose printed total disagreed with
	// the recomputed one at parse time.
	InvoicesMismatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoices_mismatched_total",
		Help: "Number of parsed invoices with a total mismatch.",
	})

	// InvoicesRepaired counts mismatched records resolved by quantity repair.
	InvoicesRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoices_repaired_total",
		Help: "Number of mismatched invoices resolved by the repair pass.",
	})

	// RelayFailures counts failed deliveries to the backend API.
	RelayFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_failures_total",
		Help: "Number of failed invoice uploads to the backend.",
	})
)

// Handler serves the default registry, for mounting on the metrics port.
func Handler() http.Handler {
	return promhttp.Handler()
}
