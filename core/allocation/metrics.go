package allocation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	submissionsTotal *prometheus.CounterVec
	queueServed      prometheus.Counter
	queueDepth       *prometheus.GaugeVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, *prometheus.GaugeVec) {
	sub := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emergency_submissions_total",
			Help: "Number of emergency submissions by outcome",
		},
		[]string{"outcome"},
	)
	served := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_entries_served_total",
			Help: "Number of queue entries promoted to dispatches by drain",
		},
	)
	depth := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waiting_queue_depth",
			Help: "Current waiting queue depth per holder",
		},
		[]string{"holder"},
	)
	return sub, served, depth
}

func init() {
	submissionsTotal, queueServed, queueDepth = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers allocation metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(submissionsTotal, queueServed, queueDepth)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	submissionsTotal, queueServed, queueDepth = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
