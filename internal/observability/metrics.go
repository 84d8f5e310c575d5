package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the send pipeline.
type Metrics struct {
	registry *prometheus.Registry

	messagesSentTotal   prometheus.Counter
	messagesFailedTotal *prometheus.CounterVec
	retriesTotal        *prometheus.CounterVec
	sendDuration        prometheus.Histogram
	batchSizes          prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		messagesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wasender",
				Name:      "messages_sent_total",
				Help:      "Total number of messages acknowledged by the platform.",
			},
		),
		messagesFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wasender",
				Name:      "messages_failed_total",
				Help:      "Total number of sends that ended in failure by terminal reason.",
			},
			[]string{"reason"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wasender",
				Name:      "retries_total",
				Help:      "Total number of retry attempts by error classification.",
			},
			[]string{"classification"},
		),
		sendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "wasender",
				Name:      "send_duration_seconds",
				Help:      "Single send attempt duration in seconds, excluding backoff waits.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		batchSizes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "wasender",
				Name:      "batch_size",
				Help:      "Number of messages per submitted batch.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messagesSentTotal,
		m.messagesFailedTotal,
		m.retriesTotal,
		m.sendDuration,
		m.batchSizes,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncMessageSent() {
	if m == nil {
		return
	}
	m.messagesSentTotal.Inc()
}

func (m *Metrics) IncMessageFailed(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.messagesFailedTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) IncRetry(classification string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(strings.ToLower(classification))
	if label == "" {
		label = "unknown"
	}
	m.retriesTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveSendDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.Observe(seconds)
}

func (m *Metrics) ObserveBatchSize(size int) {
	if m == nil {
		return
	}
	if size < 0 {
		size = 0
	}
	m.batchSizes.Observe(float64(size))
}
