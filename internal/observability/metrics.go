package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveWebSockets is the gauge of currently open WebSocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketDrops counts events that could not be delivered to a connection.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_websocket_drops_total",
		Help: "Total number of WebSocket events dropped, by reason",
	}, []string{"reason"})

	// EventsEmitted counts realtime events fanned out, by event name.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_events_emitted_total",
		Help: "Total number of realtime events emitted, by event name",
	}, []string{"event"})

	// RedisErrors counts Redis failures by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_redis_errors_total",
		Help: "Total number of Redis errors, by operation",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by statement verb.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulse_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// SessionsActive is the gauge of live user sessions.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_sessions_active",
		Help: "Number of live user sessions",
	})
)

// ObserveQuery records query latency under the statement's leading verb
// (select, insert, update, delete).
func ObserveQuery(sql string, elapsed time.Duration) {
	verb := "other"
	if i := strings.IndexByte(sql, ' '); i > 0 {
		verb = strings.ToLower(sql[:i])
	}
	switch verb {
	case "select", "insert", "update", "delete":
	default:
		verb = "other"
	}
	DatabaseQueryLatency.WithLabelValues(verb).Observe(elapsed.Seconds())
}
