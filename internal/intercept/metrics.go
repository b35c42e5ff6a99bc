package intercept

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InterceptionsTotal counts settled interception requests.
var InterceptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatgui_interceptions_total",
	Help: "Chat interception requests by outcome",
}, []string{"outcome"}) // "resolved", "cancelled"

// IncInterception increments the interception counter for the given outcome.
func IncInterception(outcome string) {
	InterceptionsTotal.WithLabelValues(outcome).Inc()
}
