package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cipherxfer/internal/domain"
)

const namespace = "cipherxfer"

// Flow labels.
const (
	FlowUpload   = "upload"
	FlowDownload = "download"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics groups every collector the client and server report to.
type Metrics struct {
	registry *prometheus.Registry

	transfers         *prometheus.CounterVec
	rejections        *prometheus.CounterVec
	framesDropped     *prometheus.CounterVec
	uploadAttempts    prometheus.Histogram
	handshakeSeconds  prometheus.Histogram
	handshakeFailures prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Completed transfer flows by flow and outcome.",
		}, []string{"flow", "outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Envelopes or requests rejected locally, by internal cause.",
		}, []string{"flow", "cause"}),
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Outgoing frames discarded by simulated loss.",
		}, []string{"type"}),
		uploadAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_attempts",
			Help:      "DATA attempts used per upload.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		handshakeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handshake_seconds",
			Help:      "Duration of successful handshakes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		handshakeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_failures_total",
			Help:      "Connections abandoned during the handshake.",
		}),
	}
	m.registry.MustRegister(
		m.transfers,
		m.rejections,
		m.framesDropped,
		m.uploadAttempts,
		m.handshakeSeconds,
		m.handshakeFailures,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Transfer counts one finished flow.
func (m *Metrics) Transfer(flow, outcome string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(flow, outcome).Inc()
}

// Rejection counts one locally detected failure. cause stays internal.
func (m *Metrics) Rejection(flow, cause string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(flow, cause).Inc()
}

// FrameDropped counts one simulated loss. Raw frames are labelled "raw".
func (m *Metrics) FrameDropped(kind domain.MessageType) {
	if m == nil {
		return
	}
	label := string(kind)
	if label == "" {
		label = "raw"
	}
	m.framesDropped.WithLabelValues(label).Inc()
}

// UploadAttempts records how many DATA sends an upload needed.
func (m *Metrics) UploadAttempts(n int) {
	if m == nil {
		return
	}
	m.uploadAttempts.Observe(float64(n))
}

// Handshake records one handshake result.
func (m *Metrics) Handshake(d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.handshakeFailures.Inc()
		return
	}
	m.handshakeSeconds.Observe(d.Seconds())
}
