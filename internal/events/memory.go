package events

import (
	"context"
	"encoding/json"
	"sync"
)

// Message is an event captured by MemoryPublisher.
type Message struct {
	Topic string
	Key   string
	Value json.RawMessage
}

// DefaultMemoryCapacity bounds how many events a MemoryPublisher retains.
const DefaultMemoryCapacity = 1024

// MemoryPublisher records the most recent events in memory. It is used when no
// brokers are configured and in tests.
type MemoryPublisher struct {
	mu       sync.Mutex
	capacity int
	messages []Message
}

func NewMemoryPublisher() *MemoryPublisher {
	return NewMemoryPublisherWithCapacity(DefaultMemoryCapacity)
}

// NewMemoryPublisherWithCapacity keeps at most capacity events, dropping the oldest.
func NewMemoryPublisherWithCapacity(capacity int) *MemoryPublisher {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryPublisher{capacity: capacity}
}

func (p *MemoryPublisher) Publish(_ context.Context, topic, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.capacity > 0 && len(p.messages) == p.capacity {
		copy(p.messages, p.messages[1:])
		p.messages = p.messages[:len(p.messages)-1]
	}
	p.messages = append(p.messages, Message{Topic: topic, Key: key, Value: body})
	return nil
}

// Messages returns the events published to topic, or every event when topic is empty.
func (p *MemoryPublisher) Messages(topic string) []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Message, 0, len(p.messages))
	for _, m := range p.messages {
		if topic == "" || m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func (p *MemoryPublisher) Close() error { return nil }
