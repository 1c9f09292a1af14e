package dev

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dev server's Prometheus instruments, exposed on
// /metrics while the server runs.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RebuildsTotal   *prometheus.CounterVec
	RebuildDuration prometheus.Histogram
	ReloadClients   prometheus.Gauge
}

// NewMetrics registers the dev server metrics with the given registerer.
// A nil registerer uses the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microtastic",
			Subsystem: "dev",
			Name:      "requests_total",
			Help:      "HTTP requests served, by status class.",
		}, []string{"status"}),
		RebuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microtastic",
			Subsystem: "dev",
			Name:      "rebuilds_total",
			Help:      "Rebuilds triggered by file changes, by outcome.",
		}, []string{"outcome"}),
		RebuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "microtastic",
			Subsystem: "dev",
			Name:      "rebuild_duration_seconds",
			Help:      "Time spent rebuilding after a change.",
			Buckets:   prometheus.DefBuckets,
		}),
		ReloadClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "microtastic",
			Subsystem: "dev",
			Name:      "reload_clients",
			Help:      "Browsers connected to the live reload socket.",
		}),
	}
}
