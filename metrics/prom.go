package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records allocation events in Prometheus metrics.
type PromSink struct {
	allocations *prometheus.CounterVec
	depth       *prometheus.GaugeVec
}

// NewPromSink registers allocation metrics on the provided Prometheus
// registerer. If reg is nil, the default registerer is used. If the
// collectors are already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_events_total",
		Help: "Total number of allocation decisions",
	}, []string{"holder", "severity", "outcome"})
	depth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "holder_queue_depth",
		Help: "Waiting queue depth per holder",
	}, []string{"holder"})

	if err := reg.Register(allocations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			allocations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(depth); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			depth = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{allocations: allocations, depth: depth}, nil
}

// RecordAllocations increments the counter for each allocation decision.
func (s *PromSink) RecordAllocations(recs []AllocationRecord) error {
	for _, r := range recs {
		s.allocations.WithLabelValues(r.HolderID, r.Severity, r.Outcome).Inc()
	}
	return nil
}

// RecordQueueDepth sets the per-holder queue depth gauge.
func (s *PromSink) RecordQueueDepth(holderID string, depth int) error {
	s.depth.WithLabelValues(holderID).Set(float64(depth))
	return nil
}
