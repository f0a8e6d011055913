package s3rest

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/s3wire/s3wire/s3err"
)

// Metrics holds the Prometheus collectors updated by the client.
type Metrics struct {
	requests *prometheus.CounterVec   // s3wire_client_requests_total{method,status}
	duration *prometheus.HistogramVec // s3wire_client_request_duration_seconds{method}
	retries  *prometheus.CounterVec   // s3wire_client_retries_total{method}
	errors   *prometheus.CounterVec   // s3wire_client_errors_total{kind}
	uploaded prometheus.Counter       // s3wire_client_bytes_uploaded_total
	received prometheus.Counter       // s3wire_client_bytes_downloaded_total
}

// NewMetrics creates the client metrics, registering them with the given registry (or the default registry when nil).
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metrics := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s3wire",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of request attempts by method and response status.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "s3wire",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Histogram of request attempt durations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s3wire",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Total number of retried requests by method.",
		}, []string{"method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s3wire",
			Subsystem: "client",
			Name:      "errors_total",
			Help:      "Total number of failed requests by error kind.",
		}, []string{"kind"}),
		uploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s3wire",
			Subsystem: "client",
			Name:      "bytes_uploaded_total",
			Help:      "Total number of bytes sent in request bodies.",
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s3wire",
			Subsystem: "client",
			Name:      "bytes_downloaded_total",
			Help:      "Total number of bytes received in response bodies.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		metrics.requests, metrics.duration, metrics.retries, metrics.errors, metrics.uploaded, metrics.received,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return metrics, nil
}

// observeAttempt records a single request attempt, a zero status indicates a transport failure.
func (m *Metrics) observeAttempt(method string, status int, sent, received int64, dur time.Duration) {
	if m == nil {
		return
	}

	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}

	m.requests.WithLabelValues(method, label).Inc()
	m.duration.WithLabelValues(method).Observe(dur.Seconds())
	m.uploaded.Add(float64(sent))
	m.received.Add(float64(received))
}

// observeRetry records a retried request.
func (m *Metrics) observeRetry(method string) {
	if m == nil {
		return
	}

	m.retries.WithLabelValues(method).Inc()
}

// observeError records a failed request using the kind of the given error.
func (m *Metrics) observeError(err error) {
	if m == nil || err == nil {
		return
	}

	m.errors.WithLabelValues(errorKind(err)).Inc()
}

// errorKind returns a short label describing the given error.
func errorKind(err error) string {
	switch {
	case s3err.IsAuthError(err):
		return "auth"
	case s3err.IsTransportError(err):
		return "transport"
	case s3err.IsEndpointError(err):
		return "endpoint"
	case s3err.IsAccessDenied(err):
		return "access_denied"
	case s3err.IsNotFound(err):
		return "not_found"
	case s3err.IsServerError(err):
		return "server"
	case s3err.IsServiceError(err):
		return "service"
	}

	return "other"
}
