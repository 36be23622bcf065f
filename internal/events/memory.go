// Package events delivers registration-completed notifications to downstream
// consumers. The Kafka publisher is the production sink; the memory publisher
// backs tests and single-node setups.
package events

import (
	"context"
	"sync"

	"slotkeeper/internal/registry/models"
)

// MemoryPublisher collects emitted events in order. Tests read them back with
// Events.
type MemoryPublisher struct {
	mu     sync.RWMutex
	events []models.RegisteredEvent
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) EmitRegistered(_ context.Context, event models.RegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything emitted so far, in emission order.
func (p *MemoryPublisher) Events() []models.RegisteredEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.RegisteredEvent{}, p.events...)
}
