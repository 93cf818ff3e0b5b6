package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec

	// Audit metrics
	AuditWrites    *prometheus.CounterVec
	AuditPublishes *prometheus.CounterVec

	// Record metrics
	RecordUploads    *prometheus.CounterVec
	RecordUploadSize prometheus.Histogram

	// Auth metrics
	Logins *prometheus.CounterVec
}

// New creates all application metrics and registers them on reg. A nil reg
// yields working but unregistered collectors.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "Total number of HTTP requests answered with an error status",
		}, []string{"method", "path", "status"}),

		AuditWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_writes_total",
			Help:      "Total number of audit log writes",
		}, []string{"action", "status"}),
		AuditPublishes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_publishes_total",
			Help:      "Total number of audit entries published to the message broker",
		}, []string{"status"}),

		RecordUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_uploads_total",
			Help:      "Total number of medical record uploads",
		}, []string{"status"}),
		RecordUploadSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_upload_bytes",
			Help:      "Size of uploaded medical records",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),

		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts by outcome",
		}, []string{"outcome"}),
	}
}

// NewNop returns metrics that are not registered anywhere. Used in tests.
func NewNop() *Metrics {
	return New("medicare", nil)
}
