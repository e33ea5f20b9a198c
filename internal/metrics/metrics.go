// Package metrics exposes Prometheus instrumentation for the watcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the watcher's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// TransactionsTotal counts validated transactions folded into the
	// accumulator.
	TransactionsTotal prometheus.Counter

	// LedgersClosedTotal counts ledgerClosed events consumed.
	LedgersClosedTotal prometheus.Counter

	// EffectsTotal counts extracted effects, labelled by kind
	// (created/modified/deleted).
	EffectsTotal *prometheus.CounterVec

	// LedgerIndex is the index of the ledger currently accumulating.
	LedgerIndex prometheus.Gauge

	// Subscribers is the number of connected snapshot consumers.
	Subscribers prometheus.Gauge
}

// New creates the collectors on a private registry so tests can build
// independent instances.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TransactionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xrplwatch_transactions_total",
			Help: "Validated transactions folded into the accumulator",
		}),
		LedgersClosedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xrplwatch_ledgers_closed_total",
			Help: "Ledger close events consumed",
		}),
		EffectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xrplwatch_effects_total",
			Help: "Ledger entry effects extracted, by kind",
		}, []string{"kind"}),
		LedgerIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xrplwatch_ledger_index",
			Help: "Index of the ledger currently being accumulated",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xrplwatch_subscribers",
			Help: "Connected snapshot stream subscribers",
		}),
	}
	m.registry.MustRegister(
		m.TransactionsTotal,
		m.LedgersClosedTotal,
		m.EffectsTotal,
		m.LedgerIndex,
		m.Subscribers,
	)
	return m
}

// Handler returns the /metrics HTTP handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
