package messaging

import (
	"context"
	"sync"
)

// Memory records published messages in process. It backs local runs and
// tests.
type Memory struct {
	mu     sync.Mutex
	topics map[string][]Message
}

func NewMemory() *Memory {
	return &Memory{topics: map[string][]Message{}}
}

func (m *Memory) Publish(ctx context.Context, topic string, msg Message) error {
	if err := precheck(ctx, topic); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.topics == nil {
		return ErrClosed
	}
	m.topics[topic] = append(m.topics[topic], msg)
	return nil
}

// Messages returns a copy of what topic received.
func (m *Memory) Messages(topic string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Message(nil), m.topics[topic]...)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.topics = nil
	return nil
}
