package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle outcome label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics holds all Prometheus metrics for the mirror. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Cycle metrics
	CyclesTotal          *prometheus.CounterVec
	CycleDuration        *prometheus.HistogramVec
	LastSuccessfulCycle  prometheus.Gauge
	NextSleepSeconds     prometheus.Gauge
	AuctionsAddedTotal   prometheus.Counter
	AuctionsRemovedTotal prometheus.Counter
	EndedNotFoundTotal   prometheus.Counter
	DecodeErrorsTotal    prometheus.Counter

	// Upstream metrics
	PagesFetchedTotal     *prometheus.CounterVec
	StalePageRetriesTotal *prometheus.CounterVec
	FetchLatency          *prometheus.HistogramVec
	FetchErrorsTotal      *prometheus.CounterVec

	// Index metrics
	LiveAuctions prometheus.Gauge
	Items        prometheus.Gauge
}

// New creates a Metrics instance registered on its own registry, along
// with the Go runtime and process collectors.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "auction_mirror"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Total number of sync cycles by kind and status",
		}, []string{"kind", "status"}),
		CycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycle_duration_seconds",
			Help:      "Sync cycle duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"kind"}),
		LastSuccessfulCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of the last published snapshot",
		}),
		NextSleepSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "next_sleep_seconds",
			Help:      "Computed wait before the next cycle",
		}),
		AuctionsAddedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "auctions_added_total",
			Help:      "Total number of auctions inserted by incremental cycles",
		}),
		AuctionsRemovedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "auctions_removed_total",
			Help:      "Total number of ended auctions removed",
		}),
		EndedNotFoundTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "ended_not_found_total",
			Help:      "Total number of ended auctions missing from the index",
		}),
		DecodeErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "errors_total",
			Help:      "Total number of undecodable item payloads",
		}),

		PagesFetchedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "pages_fetched_total",
			Help:      "Total number of upstream pages read by endpoint",
		}, []string{"endpoint"}),
		StalePageRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "stale_page_retries_total",
			Help:      "Total number of re-reads of pages behind the cycle token",
		}, []string{"endpoint"}),
		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_latency_seconds",
			Help:      "Upstream request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		FetchErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed upstream requests by path",
		}, []string{"path"}),

		LiveAuctions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "live_auctions",
			Help:      "Number of auctions in the published snapshot",
		}),
		Items: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "items",
			Help:      "Number of items with live auctions",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCycle records a finished cycle.
func (m *Metrics) RecordCycle(kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusFailed
	} else {
		m.LastSuccessfulCycle.SetToCurrentTime()
	}
	m.CyclesTotal.WithLabelValues(kind, status).Inc()
	m.CycleDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordChanges records auctions added and removed by a cycle.
func (m *Metrics) RecordChanges(added, removed, notFound int) {
	if m == nil {
		return
	}
	m.AuctionsAddedTotal.Add(float64(added))
	m.AuctionsRemovedTotal.Add(float64(removed))
	m.EndedNotFoundTotal.Add(float64(notFound))
}

// RecordDecodeErrors adds n undecodable payloads.
func (m *Metrics) RecordDecodeErrors(n int) {
	if m == nil || n == 0 {
		return
	}
	m.DecodeErrorsTotal.Add(float64(n))
}

// SetIndexSize updates the index gauges.
func (m *Metrics) SetIndexSize(items, auctions int) {
	if m == nil {
		return
	}
	m.Items.Set(float64(items))
	m.LiveAuctions.Set(float64(auctions))
}

// SetNextSleep updates the scheduled sleep gauge.
func (m *Metrics) SetNextSleep(d time.Duration) {
	if m == nil {
		return
	}
	m.NextSleepSeconds.Set(d.Seconds())
}

// PageFetched counts one upstream page read.
func (m *Metrics) PageFetched(endpoint string) {
	if m == nil {
		return
	}
	m.PagesFetchedTotal.WithLabelValues(endpoint).Inc()
}

// StaleRetry counts one re-read of a lagging page.
func (m *Metrics) StaleRetry(endpoint string) {
	if m == nil {
		return
	}
	m.StalePageRetriesTotal.WithLabelValues(endpoint).Inc()
}

// ObserveRequest records one upstream HTTP attempt.
func (m *Metrics) ObserveRequest(path string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchLatency.WithLabelValues(path).Observe(elapsed.Seconds())
	if err != nil {
		m.FetchErrorsTotal.WithLabelValues(path).Inc()
	}
}
