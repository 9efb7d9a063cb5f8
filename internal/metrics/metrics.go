// Package metrics exposes Prometheus counters for the filing pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stages used as error labels.
const (
	StageFeed      = "feed"
	StageFetch     = "fetch"
	StagePublish   = "publish"
	StageDirectory = "directory"
)

// Recorder records pipeline metrics in its own registry.
type Recorder struct {
	registry  *prometheus.Registry
	analyzed  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	feedItems prometheus.Gauge
}

// New creates a Recorder with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		analyzed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filingsense_filings_analyzed_total",
				Help: "Filings analyzed, by form type and sentiment label",
			},
			[]string{"form", "sentiment"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filingsense_errors_total",
				Help: "Pipeline errors by stage",
			},
			[]string{"stage"},
		),
		skipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filingsense_filings_skipped_total",
				Help: "Feed entries skipped before analysis, by reason",
			},
			[]string{"reason"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filingsense_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		feedItems: f.NewGauge(prometheus.GaugeOpts{
			Name: "filingsense_feed_entries",
			Help: "Entries in the most recent latest-filings feed poll",
		}),
	}
}

// RecordAnalyzed counts one analyzed filing.
func (r *Recorder) RecordAnalyzed(form, sentiment string) {
	r.analyzed.WithLabelValues(form, sentiment).Inc()
}

// RecordError counts one failure at stage.
func (r *Recorder) RecordError(stage string) {
	r.errors.WithLabelValues(stage).Inc()
}

// RecordSkipped counts one entry dropped by a filter.
func (r *Recorder) RecordSkipped(reason string) {
	r.skipped.WithLabelValues(reason).Inc()
}

// ObserveDuration records how long op took since start.
func (r *Recorder) ObserveDuration(op string, start time.Time) {
	r.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetFeedEntries records the size of the latest feed.
func (r *Recorder) SetFeedEntries(n int) {
	r.feedItems.Set(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
