package mqtt

import (
	"errors"
	"sync"
)

var errPublishFailed = errors.New("publish failed")

// Publisher sends payloads to broker topics.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Disconnect()
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	mu       sync.Mutex
	Messages map[string][][]byte
	Fail     bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Messages: make(map[string][][]byte)}
}

// Publish records the message or fails if configured to.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return errPublishFailed
	}
	m.Messages[topic] = append(m.Messages[topic], payload)
	return nil
}

// Topics returns the topics that received at least one message.
func (m *MockPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for t := range m.Messages {
		out = append(out, t)
	}
	return out
}

// Disconnect is a no-op.
func (m *MockPublisher) Disconnect() {}
