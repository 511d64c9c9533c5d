package testutil

import (
	"encoding/json"
	"sync"

	"github.com/devaloi/agora/internal/domain"
)

// MockConn implements hub.Conn for testing.
type MockConn struct {
	Name     string
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	capacity int
}

// NewMockConn creates a MockConn that accepts every frame.
func NewMockConn(name string) *MockConn {
	return &MockConn{Name: name}
}

// NewFullMockConn creates a MockConn that accepts at most capacity frames.
func NewFullMockConn(name string, capacity int) *MockConn {
	return &MockConn{Name: name, capacity: capacity}
}

// ID returns the mock connection's name.
func (m *MockConn) ID() string { return m.Name }

// Send records a frame. It refuses frames once closed or at capacity.
func (m *MockConn) Send(data []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	if m.capacity > 0 && len(m.messages) >= m.capacity {
		return false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.messages = append(m.messages, cp)
	return true
}

// Close makes every later Send a no-op.
func (m *MockConn) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// GetMessages returns a copy of all frames received by the mock connection.
func (m *MockConn) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(m.messages))
	copy(cp, m.messages)
	return cp
}

// Envelopes decodes every received frame as an event envelope.
func (m *MockConn) Envelopes() []domain.Envelope {
	msgs := m.GetMessages()
	out := make([]domain.Envelope, 0, len(msgs))
	for _, raw := range msgs {
		var env domain.Envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			out = append(out, env)
		}
	}
	return out
}

// Count returns the number of frames received.
func (m *MockConn) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// MockPublisher records published Change Events.
type MockPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records evt.
func (p *MockPublisher) Publish(evt domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

// Events returns a copy of the recorded events.
func (p *MockPublisher) Events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]domain.Event, len(p.events))
	copy(cp, p.events)
	return cp
}

// Last returns the most recent event and whether there was one.
func (p *MockPublisher) Last() (domain.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return domain.Event{}, false
	}
	return p.events[len(p.events)-1], true
}

// Reset forgets all recorded events.
func (p *MockPublisher) Reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}
