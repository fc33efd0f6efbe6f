// Package metrics provides catalog search and ingestion metrics
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics groups the Prometheus collectors of the catalog service.
type CatalogMetrics struct {
	searchesTotal     *prometheus.CounterVec
	searchDuration    *prometheus.HistogramVec
	searchDiagnostics prometheus.Counter
	ingestRowsTotal   *prometheus.CounterVec
	ingestRunsTotal   *prometheus.CounterVec
}

// NewCatalogMetrics creates the collectors and registers them with registry.
func NewCatalogMetrics(registry prometheus.Registerer) (*CatalogMetrics, error) {
	m := &CatalogMetrics{
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_searches_total",
				Help: "Total number of catalog searches",
			},
			[]string{"mode", "status"}, // mode: projected, grouped, trend
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_search_duration_seconds",
				Help:    "Time taken to run a catalog search",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"mode"},
		),
		searchDiagnostics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_search_ignored_parameters_total",
				Help: "Search parameters dropped because they did not resolve or coerce",
			},
		),
		ingestRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_ingest_rows_total",
				Help: "Ingested rows by family, phase and outcome",
			},
			[]string{"family", "phase", "outcome"}, // outcome: accepted, rejected
		),
		ingestRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_ingest_runs_total",
				Help: "Ingestion runs by family and status",
			},
			[]string{"family", "status"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.searchesTotal, m.searchDuration, m.searchDiagnostics, m.ingestRowsTotal, m.ingestRunsTotal,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveSearch records one finished search. Nil receivers are no-ops so the
// services can run without metrics in tests.
func (m *CatalogMetrics) ObserveSearch(mode string, d time.Duration, diagnostics int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.searchesTotal.WithLabelValues(mode, status).Inc()
	m.searchDuration.WithLabelValues(mode).Observe(d.Seconds())
	m.searchDiagnostics.Add(float64(diagnostics))
}

// ObserveRows adds accepted and rejected row counts of one ingestion phase.
func (m *CatalogMetrics) ObserveRows(family, phase string, accepted, rejected int) {
	if m == nil {
		return
	}
	m.ingestRowsTotal.WithLabelValues(family, phase, "accepted").Add(float64(accepted))
	m.ingestRowsTotal.WithLabelValues(family, phase, "rejected").Add(float64(rejected))
}

// ObserveRun counts one ingestion run.
func (m *CatalogMetrics) ObserveRun(family string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ingestRunsTotal.WithLabelValues(family, status).Inc()
}
