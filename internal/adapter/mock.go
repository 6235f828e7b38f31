package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock implements Adapter for testing. It records sent messages and allows
// simulating inbound messages via SimulateInbound.
type Mock struct {
	mu        sync.Mutex
	connected bool
	closed    bool
	inbound   chan Inbound
	sent      []Outbound
	botUserID string
}

// NewMock creates a Mock with a buffered inbound channel.
func NewMock() *Mock {
	return &Mock{
		inbound: make(chan Inbound, 100),
	}
}

// BotUserID returns the configured bot user ID (implements BotUserIDer).
func (m *Mock) BotUserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.botUserID
}

// SetBotUserID sets the bot user ID for testing.
func (m *Mock) SetBotUserID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.botUserID = id
}

// Connect marks the adapter as connected.
func (m *Mock) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock adapter: already closed")
	}
	m.connected = true
	return nil
}

// Listen returns the inbound message channel. Must be called after Connect.
func (m *Mock) Listen(ctx context.Context) (<-chan Inbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("mock adapter: not connected")
	}
	return m.inbound, nil
}

// Send records the outbound message.
func (m *Mock) Send(ctx context.Context, msg Outbound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("mock adapter: not connected")
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Close shuts down the mock adapter and closes the inbound channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.connected = false
	close(m.inbound)
	return nil
}

// --- Test helpers ---

// SimulateInbound sends a message into the inbound channel as if it came
// from the chat platform. Safe to call from any goroutine.
func (m *Mock) SimulateInbound(msg Inbound) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	m.inbound <- msg
}

// LastSent returns the most recently sent outbound message.
// Returns zero value and false if no messages have been sent.
func (m *Mock) LastSent() (Outbound, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Outbound{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// SentCount returns the number of outbound messages sent.
func (m *Mock) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// AllSent returns a copy of all sent outbound messages.
func (m *Mock) AllSent() []Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Outbound, len(m.sent))
	copy(out, m.sent)
	return out
}
