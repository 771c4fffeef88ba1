package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connection metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classhub_connections_active",
		Help: "The current number of attached WebSocket connections.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classhub_connections_total",
		Help: "The total number of WebSocket connections admitted.",
	})
	AdmissionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classhub_admission_rejections_total",
		Help: "The total number of connections refused at admission.",
	}, []string{"reason"})

	// Session metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classhub_sessions_active",
		Help: "The current number of live classroom sessions.",
	})

	// Message metrics
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classhub_messages_received_total",
		Help: "The total number of well-formed messages received from clients.",
	})
	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classhub_messages_dropped_total",
		Help: "The total number of inbound messages dropped without effect.",
	}, []string{"reason"})

	// Executor metrics
	ExecutorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classhub_executor_runs_total",
		Help: "The total number of sandbox executions by outcome.",
	}, []string{"outcome"})
)

// Handler returns the Prometheus scrape handler, mounted by the application
// on its main HTTP mux.
func Handler() http.Handler {
	return promhttp.Handler()
}
