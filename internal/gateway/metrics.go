package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectedPlayers tracks the number of authenticated websocket players.
	ConnectedPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatgui_connected_players",
		Help: "The number of players connected over websocket",
	})

	// MessagesTotal tracks websocket frames by direction.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatgui_ws_messages_total",
		Help: "The total number of websocket frames sent and received",
	}, []string{"direction"}) // "in", "out"

	// ErrorsTotal tracks rejected connections and requests.
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatgui_ws_errors_total",
		Help: "The total number of websocket errors",
	}, []string{"type"}) // "auth", "protocol", "rate_limit", "internal"
)

// MetricsHandler returns the HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func IncMessageIn() { MessagesTotal.WithLabelValues("in").Inc() }
func IncMessageOut() { MessagesTotal.WithLabelValues("out").Inc() }

// IncError increments the error counter for the given type.
func IncError(errType string) {
	ErrorsTotal.WithLabelValues(errType).Inc()
}
