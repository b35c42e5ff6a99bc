package invoke

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InvocationsTotal counts token submissions and cancellations by outcome.
	InvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatgui_invocations_total",
		Help: "Token submissions and cancellations by outcome",
	}, []string{"result"}) // "fired", "stale", "malformed", "cancelled"

	// PendingInvocations tracks the size of the most recently touched
	// invoker's table.
	PendingInvocations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatgui_pending_invocations",
		Help: "Callbacks registered and not yet fired or cancelled",
	})
)

// IncInvocation increments the invocation counter for the given result.
func IncInvocation(result string) {
	InvocationsTotal.WithLabelValues(result).Inc()
}
