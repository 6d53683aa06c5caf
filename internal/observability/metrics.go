package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors shared by the client core and the reference backend.
type Metrics struct {
	gatewayRequests *prometheus.CounterVec
	gatewayFailures *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	storeFailures   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpErrors      *prometheus.CounterVec
	clientEvents    *prometheus.CounterVec
}

// NewMetrics builds collectors and registers them on reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourbooking",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Backend gateway calls by endpoint and HTTP status.",
		}, []string{"endpoint", "status"}),
		gatewayFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourbooking",
			Subsystem: "gateway",
			Name:      "failures_total",
			Help:      "Backend gateway failures by endpoint and error kind.",
		}, []string{"endpoint", "kind"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tourbooking",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Backend gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourbooking",
			Subsystem: "store",
			Name:      "write_failures_total",
			Help:      "Persistent store writes that failed, by key.",
		}, []string{"key"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourbooking",
			Subsystem: "backend",
			Name:      "http_requests_total",
			Help:      "Reference backend requests by path, method and status.",
		}, []string{"path", "method", "status"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourbooking",
			Subsystem: "backend",
			Name:      "http_errors_total",
			Help:      "Reference backend errors by path, method and error code.",
		}, []string{"path", "method", "code"}),
		clientEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tourbooking",
			Subsystem: "client",
			Name:      "events_total",
			Help:      "Session, cart and coupon events by type and detail.",
		}, []string{"type", "detail"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.gatewayRequests, m.gatewayFailures, m.gatewayLatency,
			m.storeFailures, m.httpRequests, m.httpErrors,
			m.clientEvents,
		)
	}
	return m
}

// RecordGatewayCall records one completed gateway round trip. status is 0 when no response arrived.
func (m *Metrics) RecordGatewayCall(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.gatewayLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordGatewayFailure increments the failure counter for a classified error kind.
func (m *Metrics) RecordGatewayFailure(endpoint, kind string) {
	if m == nil {
		return
	}
	m.gatewayFailures.WithLabelValues(endpoint, kind).Inc()
}

func (m *Metrics) RecordStoreFailure(key string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(key).Inc()
}

// RecordRequest increments counters for backend requests.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError increments backend error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(path, method, code).Inc()
}

// RecordEvent counts a client event. detail narrows it, e.g. a destroy reason.
func (m *Metrics) RecordEvent(eventType, detail string) {
	if m == nil {
		return
	}
	m.clientEvents.WithLabelValues(eventType, detail).Inc()
}
