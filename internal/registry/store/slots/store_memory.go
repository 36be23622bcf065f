package slots

import (
	"context"
	"fmt"
	"sync"

	"slotkeeper/internal/registry/models"
	"slotkeeper/pkg/domain"
	"slotkeeper/pkg/platform/sentinel"
)

// InMemorySlotStore keeps the slot table and membership index in process
// memory. It favors clarity over performance and backs unit tests; use the
// Postgres store for deployments that must survive restarts.
type InMemorySlotStore struct {
	mu    sync.RWMutex
	nets  map[domain.NetID][]models.Slot
	index map[domain.NetID]map[domain.Key]domain.UID
}

// NewInMemorySlotStore creates an empty in-memory slot store.
func NewInMemorySlotStore() *InMemorySlotStore {
	return &InMemorySlotStore{
		nets:  make(map[domain.NetID][]models.Slot),
		index: make(map[domain.NetID]map[domain.Key]domain.UID),
	}
}

func (s *InMemorySlotStore) OccupiedCount(_ context.Context, net domain.NetID) (uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint16(len(s.nets[net])), nil
}

func (s *InMemorySlotStore) IsMember(_ context.Context, net domain.NetID, key domain.Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[net][key]
	return ok, nil
}

func (s *InMemorySlotStore) UIDOf(_ context.Context, net domain.NetID, key domain.Key) (domain.UID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uid, ok := s.index[net][key]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return uid, nil
}

func (s *InMemorySlotStore) PruningScore(_ context.Context, net domain.NetID, uid domain.UID) (domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots := s.nets[net]
	if int(uid) >= len(slots) {
		return 0, sentinel.ErrNotFound
	}
	return slots[uid].PruningScore, nil
}

func (s *InMemorySlotStore) SetPruningScore(_ context.Context, net domain.NetID, uid domain.UID, score domain.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := s.nets[net]
	if int(uid) >= len(slots) {
		return sentinel.ErrNotFound
	}
	slots[uid].PruningScore = score
	return nil
}

func (s *InMemorySlotStore) RegistrationBlock(_ context.Context, net domain.NetID, uid domain.UID) (domain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots := s.nets[net]
	if int(uid) >= len(slots) {
		return 0, sentinel.ErrNotFound
	}
	return slots[uid].RegisteredAt, nil
}

func (s *InMemorySlotStore) Append(_ context.Context, net domain.NetID, key domain.Key, block domain.Block) (domain.UID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[net][key]; ok {
		return 0, fmt.Errorf("append %s on net %s: %w", key, net, sentinel.ErrConflict)
	}
	uid := domain.UID(len(s.nets[net]))
	s.nets[net] = append(s.nets[net], models.Slot{
		UID:          uid,
		Key:          key,
		PruningScore: 0,
		RegisteredAt: block,
	})
	if s.index[net] == nil {
		s.index[net] = make(map[domain.Key]domain.UID)
	}
	s.index[net][key] = uid
	return uid, nil
}

func (s *InMemorySlotStore) Replace(_ context.Context, net domain.NetID, uid domain.UID, key domain.Key, block domain.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := s.nets[net]
	if int(uid) >= len(slots) {
		return sentinel.ErrNotFound
	}
	old := slots[uid]
	delete(s.index[net], old.Key)
	// The pruning score is left untouched: the eviction selector has already
	// stamped it to MaxScore as the hand-off marker, and the external scorer
	// owns it from here.
	slots[uid] = models.Slot{
		UID:          uid,
		Key:          key,
		PruningScore: old.PruningScore,
		RegisteredAt: block,
	}
	if s.index[net] == nil {
		s.index[net] = make(map[domain.Key]domain.UID)
	}
	s.index[net][key] = uid
	return nil
}

func (s *InMemorySlotStore) Slots(_ context.Context, net domain.NetID) ([]models.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Slot{}, s.nets[net]...), nil
}
