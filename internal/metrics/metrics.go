// Package metrics exposes the SDK's own operational metrics through
// Prometheus. Registration happens once per process on first use; the
// instruments land in the default registry so an application that
// already serves /metrics picks them up for free.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the SDK instruments.
type Metrics struct {
	// Tracer metrics
	SpansStarted  *prometheus.CounterVec
	SpansFinished prometheus.Counter

	// Capture metrics
	EventsCaptured *prometheus.CounterVec
	EventsDropped  *prometheus.CounterVec

	// Transport metrics
	BatchesSent    *prometheus.CounterVec
	RecordsSent    *prometheus.CounterVec
	RecordsDropped *prometheus.CounterVec
	SendRetries    *prometheus.CounterVec
	SendDuration   *prometheus.HistogramVec
	QueueDepth     *prometheus.GaugeVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the singleton metrics instance.
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = newMetrics()
	})
	return defaultMetrics
}

func newMetrics() *Metrics {
	return &Metrics{
		SpansStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syntra_spans_started_total",
				Help: "Spans started, by sampling decision",
			},
			[]string{"sampled"},
		),
		SpansFinished: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "syntra_spans_finished_total",
				Help: "Spans finished and handed to the transport",
			},
		),
		EventsCaptured: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syntra_events_captured_total",
				Help: "Events accepted by the capture pipeline",
			},
			[]string{"type"},
		),
		EventsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syntra_events_dropped_total",
				Help: "Events dropped before reaching the queue",
			},
			[]string{"reason"},
		),
		BatchesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syntra_transport_batches_total",
				Help: "Batches sent, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		RecordsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syntra_transport_records_sent_total",
				Help: "Records delivered to the ingest endpoint",
			},
			[]string{"kind"},
		),
		RecordsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syntra_transport_records_dropped_total",
				Help: "Records dropped, by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		SendRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "syntra_transport_retries_total",
				Help: "Send attempts beyond the first, by kind",
			},
			[]string{"kind"},
		),
		SendDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "syntra_transport_send_duration_seconds",
				Help:    "Time spent sending a batch, retries included",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
		QueueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "syntra_transport_queue_depth",
				Help: "Records waiting in each queue",
			},
			[]string{"kind"},
		),
	}
}

// RecordSpanStart counts a span start with its sampling decision.
func (m *Metrics) RecordSpanStart(sampled bool) {
	decision := "false"
	if sampled {
		decision = "true"
	}
	m.SpansStarted.WithLabelValues(decision).Inc()
}

// RecordSpanFinish counts a finished span.
func (m *Metrics) RecordSpanFinish() {
	m.SpansFinished.Inc()
}

// RecordCapture counts an accepted capture.
func (m *Metrics) RecordCapture(eventType string) {
	m.EventsCaptured.WithLabelValues(eventType).Inc()
}

// RecordCaptureDrop counts an event dropped before enqueue.
func (m *Metrics) RecordCaptureDrop(reason string) {
	m.EventsDropped.WithLabelValues(reason).Inc()
}

// RecordBatch counts a batch send outcome.
func (m *Metrics) RecordBatch(kind, outcome string, records int, duration time.Duration) {
	m.BatchesSent.WithLabelValues(kind, outcome).Inc()
	m.SendDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if outcome == "sent" {
		m.RecordsSent.WithLabelValues(kind).Add(float64(records))
	}
}

// RecordDrop counts dropped records.
func (m *Metrics) RecordDrop(kind, reason string, records int) {
	m.RecordsDropped.WithLabelValues(kind, reason).Add(float64(records))
}

// RecordRetry counts a retry attempt.
func (m *Metrics) RecordRetry(kind string) {
	m.SendRetries.WithLabelValues(kind).Inc()
}

// SetQueueDepth records the current depth of a queue.
func (m *Metrics) SetQueueDepth(kind string, depth int) {
	m.QueueDepth.WithLabelValues(kind).Set(float64(depth))
}
