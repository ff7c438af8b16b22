package metrics

import "time"

// Config selects and configures the metric sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}

// AllocationRecord represents one allocation decision to be recorded.
type AllocationRecord struct {
	HolderID  string
	RequestID string
	Severity  string
	Outcome   string
	Timestamp time.Time
}

// Sink records allocation activity for observability purposes.
type Sink interface {
	RecordAllocations(recs []AllocationRecord) error
	RecordQueueDepth(holderID string, depth int) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAllocations([]AllocationRecord) error { return nil }
func (NopSink) RecordQueueDepth(string, int) error         { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAllocations forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAllocations(recs []AllocationRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordAllocations(recs); err != nil {
			return err
		}
	}
	return nil
}

// RecordQueueDepth forwards the depth sample to all sinks.
func (m *MultiSink) RecordQueueDepth(holderID string, depth int) error {
	for _, s := range m.Sinks {
		if err := s.RecordQueueDepth(holderID, depth); err != nil {
			return err
		}
	}
	return nil
}
