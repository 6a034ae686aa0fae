// Package metrics exposes Prometheus collectors for the load and render
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atikulmunna/threadline/internal/reconstruct"
)

type Metrics struct {
	registry *prometheus.Registry

	linesRead      prometheus.Counter
	events         *prometheus.CounterVec
	unmatched      prometheus.Counter
	overwritten    prometheus.Counter
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	intervals      *prometheus.GaugeVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		linesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threadline",
			Name:      "lines_read_total",
			Help:      "Log lines read, matched or not",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadline",
			Name:      "events_total",
			Help:      "Classified log events by kind",
		}, []string{"kind"}),
		unmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threadline",
			Name:      "unmatched_finishes_total",
			Help:      "Finish events dropped for lack of an open start",
		}),
		overwritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threadline",
			Name:      "overwritten_starts_total",
			Help:      "Start events replaced by a later start for the same key",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadline",
			Name:      "renders_total",
			Help:      "Timeline renders by outcome",
		}, []string{"outcome"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "threadline",
			Name:      "render_duration_seconds",
			Help:      "Time to load, reconstruct and render one log",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		intervals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "threadline",
			Name:      "intervals",
			Help:      "Intervals in the most recent timeline by collection",
		}, []string{"collection"}),
	}
	m.registry.MustRegister(
		m.linesRead,
		m.events,
		m.unmatched,
		m.overwritten,
		m.renders,
		m.renderDuration,
		m.intervals,
	)
	return m
}

// ObservePass records the outcome of one reconstruction pass.
func (m *Metrics) ObservePass(lines int, c reconstruct.Counters, operations, regions, barriers int) {
	if m == nil {
		return
	}
	m.linesRead.Add(float64(lines))
	for kind, n := range c.Events {
		m.events.WithLabelValues(kind).Add(float64(n))
	}
	m.unmatched.Add(float64(c.Unmatched))
	m.overwritten.Add(float64(c.Overwritten))
	m.intervals.WithLabelValues("operations").Set(float64(operations))
	m.intervals.WithLabelValues("regions").Set(float64(regions))
	m.intervals.WithLabelValues("barriers").Set(float64(barriers))
}

// ObserveRender records one render attempt.
func (m *Metrics) ObserveRender(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.renders.WithLabelValues(outcome).Inc()
	m.renderDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
