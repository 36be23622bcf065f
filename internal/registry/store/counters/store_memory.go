package counters

import (
	"context"
	"sync"

	"slotkeeper/pkg/domain"
)

// InMemoryCounterStore tracks registration counters in process memory.
type InMemoryCounterStore struct {
	mu       sync.RWMutex
	block    map[domain.NetID]uint16
	interval map[domain.NetID]uint16
}

// NewInMemoryCounterStore creates a zeroed in-memory counter store.
func NewInMemoryCounterStore() *InMemoryCounterStore {
	return &InMemoryCounterStore{
		block:    make(map[domain.NetID]uint16),
		interval: make(map[domain.NetID]uint16),
	}
}

func (s *InMemoryCounterStore) RegistrationsThisBlock(_ context.Context, net domain.NetID) (uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.block[net], nil
}

func (s *InMemoryCounterStore) RegistrationsThisInterval(_ context.Context, net domain.NetID) (uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval[net], nil
}

func (s *InMemoryCounterStore) IncrementBlock(_ context.Context, net domain.NetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block[net]++
	return nil
}

func (s *InMemoryCounterStore) IncrementInterval(_ context.Context, net domain.NetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval[net]++
	return nil
}

func (s *InMemoryCounterStore) ResetBlock(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.block)
	return nil
}

func (s *InMemoryCounterStore) ResetInterval(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.interval)
	return nil
}
