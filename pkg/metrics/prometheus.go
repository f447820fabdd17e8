package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	alertsTotal  *prometheus.CounterVec
	digestDepth  prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notigate_signals_total",
				Help: "Signals decided, labelled by admission outcome",
			},
			[]string{"outcome", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notigate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notigate_alerts_total",
				Help: "Failure alerts emitted, labelled by category",
			},
			[]string{"category"},
		),
		digestDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "notigate_digest_depth",
				Help: "Signals currently held in the digest cache",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notigate_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAdmission records one decided signal.
func (r *Recorder) RecordAdmission(outcome, symbol string) {
	r.signalsTotal.WithLabelValues(outcome, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordDigestDepth records the current digest cache depth.
func (r *Recorder) RecordDigestDepth(n int) {
	r.digestDepth.Set(float64(n))
}

// RecordAlert records an emitted failure alert.
func (r *Recorder) RecordAlert(category string) {
	r.alertsTotal.WithLabelValues(category).Inc()
}
