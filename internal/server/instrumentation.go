package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// Instrumentation holds the exporter's own metrics on a private registry,
// kept apart from the collected router metrics.
type Instrumentation struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	responseSize     *prometheus.HistogramVec
	sourceDuration   *prometheus.GaugeVec
	sourceUp         *prometheus.GaugeVec
	sourceSamples    *prometheus.GaugeVec
	rateLimitRejects prometheus.Counter
	panicRecoveries  prometheus.Counter
}

// NewInstrumentation creates the registry with HTTP, collector and process
// metrics.
func NewInstrumentation() *Instrumentation {
	reg := prometheus.NewRegistry()
	i := &Instrumentation{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "homerouter_exporter_http_requests_total",
			Help: "HTTP requests by handler, method and status code.",
		}, []string{"handler", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "homerouter_exporter_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "homerouter_exporter_http_response_size_bytes",
			Help:    "HTTP response body size.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"handler"}),
		sourceDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "homerouter_exporter_source_duration_seconds",
			Help: "Duration of the collector's last run.",
		}, []string{"source"}),
		sourceUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "homerouter_exporter_source_up",
			Help: "Whether the collector's last run succeeded.",
		}, []string{"source"}),
		sourceSamples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "homerouter_exporter_source_samples",
			Help: "Samples produced by the collector's last run.",
		}, []string{"source"}),
		rateLimitRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homerouter_exporter_rate_limit_rejects_total",
			Help: "Scrapes rejected by the rate limiter.",
		}),
		panicRecoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homerouter_exporter_panic_recoveries_total",
			Help: "Panics recovered in HTTP handlers.",
		}),
	}
	reg.MustRegister(
		i.requests,
		i.requestDuration,
		i.responseSize,
		i.sourceDuration,
		i.sourceUp,
		i.sourceSamples,
		i.rateLimitRejects,
		i.panicRecoveries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return i
}

// ObserveCollector implements metrics.Observer.
func (i *Instrumentation) ObserveCollector(name string, duration time.Duration, samples int, err error) {
	i.sourceDuration.WithLabelValues(name).Set(duration.Seconds())
	i.sourceSamples.WithLabelValues(name).Set(float64(samples))
	if err != nil {
		i.sourceUp.WithLabelValues(name).Set(0)
	} else {
		i.sourceUp.WithLabelValues(name).Set(1)
	}
}

// Gather returns the current self metrics.
func (i *Instrumentation) Gather() ([]*dto.MetricFamily, error) {
	return i.registry.Gather()
}
