package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

var (
	// API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anticaptcha_api_requests_total",
			Help: "Total number of anti-captcha API calls",
		},
		[]string{"method", "status"},
	)

	APIRoundTripDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anticaptcha_api_roundtrip_duration_seconds",
			Help:    "HTTP round trip duration of anti-captcha API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"code"},
	)

	APIRoundTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anticaptcha_api_roundtrips_total",
			Help: "Total number of HTTP round trips to the anti-captcha API",
		},
		[]string{"code"},
	)

	ProcessingPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anticaptcha_processing_polls_total",
			Help: "Total number of polls that reported processing",
		},
	)

	Balance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anticaptcha_balance",
			Help: "Last observed account balance",
		},
	)

	// Solve metrics
	SolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anticaptcha_solves_total",
			Help: "Total number of solve attempts by outcome",
		},
		[]string{"type", "outcome"},
	)

	SolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anticaptcha_solve_duration_seconds",
			Help:    "Time from task creation to solution",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~8.5m
		},
		[]string{"type"},
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anticaptcha_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anticaptcha_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anticaptcha_websocket_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WebSocketMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anticaptcha_websocket_messages_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"type"},
	)
)

// RecordSolve records the outcome of a solve
func RecordSolve(taskType, outcome string, duration time.Duration) {
	SolvesTotal.WithLabelValues(taskType, outcome).Inc()
	if outcome == anticaptcha.WaitStateReady.String() {
		SolveDuration.WithLabelValues(taskType).Observe(duration.Seconds())
	}
}

// SetBalance sets the balance gauge
func SetBalance(balance float64) {
	Balance.Set(balance)
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// SetWebSocketConnections sets the WebSocket connections gauge
func SetWebSocketConnections(count float64) {
	WebSocketConnections.Set(count)
}

// RecordWebSocketMessage records a WebSocket message
func RecordWebSocketMessage(msgType string) {
	WebSocketMessages.WithLabelValues(msgType).Inc()
}

// InstrumentTransport wraps the anticaptcha per-request transport with
// round trip counters and latency.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperCounter(APIRoundTrips,
		promhttp.InstrumentRoundTripperDuration(APIRoundTripDuration, next))
}
