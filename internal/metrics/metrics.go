// Package metrics exposes dispatch counters and latencies through a
// private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default histogram buckets for dispatch duration (in milliseconds)
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Metrics wraps the prometheus collectors for one dispatch client.
type Metrics struct {
	registry *prometheus.Registry

	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	activeAsyncJobs  prometheus.Gauge
	eventsPublished  *prometheus.CounterVec
}

// New builds a Metrics instance with its own registry.
func New(namespace string, buckets []float64) *Metrics {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		dispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Dispatched operations by mode and outcome",
		}, []string{"mode", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_ms",
			Help:      "Dispatch duration in milliseconds",
			Buckets:   buckets,
		}, []string{"mode"}),
		activeAsyncJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_async_jobs",
			Help:      "Async jobs currently executing in this process",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Job lifecycle events published to the bus",
		}, []string{"kind"}),
	}

	registry.MustRegister(m.dispatchesTotal, m.dispatchDuration, m.activeAsyncJobs, m.eventsPublished)
	return m
}

// RecordDispatch records one completed dispatch.
func (m *Metrics) RecordDispatch(mode string, success bool, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.dispatchesTotal.WithLabelValues(mode, outcome).Inc()
	m.dispatchDuration.WithLabelValues(mode).Observe(float64(elapsed.Milliseconds()))
}

// AsyncJobStarted / AsyncJobFinished adjust the active-jobs gauge.
func (m *Metrics) AsyncJobStarted()  { m.activeAsyncJobs.Inc() }
func (m *Metrics) AsyncJobFinished() { m.activeAsyncJobs.Dec() }

// RecordEvent counts one published lifecycle event.
func (m *Metrics) RecordEvent(kind string) {
	m.eventsPublished.WithLabelValues(kind).Inc()
}

// Handler exposes the registry over HTTP for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
