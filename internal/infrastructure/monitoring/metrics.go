package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Auth metrics
	AuthDecisions *prometheus.CounterVec
	TicketsIssued prometheus.Counter
	JWTCacheHits  prometheus.Counter

	// Discovery proxy metrics
	DiscoveryRequests *prometheus.CounterVec
	DiscoveryDuration prometheus.Histogram

	// Session relay metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter
	SessionFrames  *prometheus.CounterVec
	ControlMsgs    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdpgate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cdpgate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		AuthDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdpgate_auth_decisions_total",
				Help: "Authorization decisions by credential scheme and outcome",
			},
			[]string{"scheme", "outcome"},
		),
		TicketsIssued: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cdpgate_tickets_issued_total",
				Help: "Total number of tickets issued",
			},
		),
		JWTCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cdpgate_jwt_cache_hits_total",
				Help: "JWT validations served from cache",
			},
		),

		DiscoveryRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdpgate_discovery_requests_total",
				Help: "Discovery proxy requests by upstream status",
			},
			[]string{"status"},
		),
		DiscoveryDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cdpgate_discovery_duration_seconds",
				Help:    "Upstream discovery request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cdpgate_sessions_active",
				Help: "Number of active relay sessions",
			},
		),
		SessionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cdpgate_sessions_total",
				Help: "Total number of relay sessions established",
			},
		),
		SessionFrames: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdpgate_session_frames_total",
				Help: "Relayed session frames by direction and type",
			},
			[]string{"direction", "type"},
		),
		ControlMsgs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdpgate_control_messages_total",
				Help: "Control-channel messages by method and outcome",
			},
			[]string{"method", "outcome"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cdpgate_uptime_seconds",
				Help: "Gateway uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric.
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAuthDecision records an authorization outcome.
func (m *Metrics) RecordAuthDecision(scheme, outcome string) {
	m.AuthDecisions.WithLabelValues(scheme, outcome).Inc()
}

// RecordDiscovery records a proxied discovery request.
func (m *Metrics) RecordDiscovery(status string, duration time.Duration) {
	m.DiscoveryRequests.WithLabelValues(status).Inc()
	m.DiscoveryDuration.Observe(duration.Seconds())
}

// RecordSessionFrame records one relayed frame.
func (m *Metrics) RecordSessionFrame(direction, frameType string) {
	m.SessionFrames.WithLabelValues(direction, frameType).Inc()
}

// RecordControlMessage records a control-channel dispatch.
func (m *Metrics) RecordControlMessage(method, outcome string) {
	m.ControlMsgs.WithLabelValues(method, outcome).Inc()
}

// SessionStarted marks a relay session as established.
func (m *Metrics) SessionStarted() {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// SessionEnded marks a relay session as finished.
func (m *Metrics) SessionEnded() {
	m.SessionsActive.Dec()
}
