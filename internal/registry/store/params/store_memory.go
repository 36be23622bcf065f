package params

import (
	"context"
	"sort"
	"sync"

	"slotkeeper/internal/registry/models"
	"slotkeeper/pkg/domain"
	"slotkeeper/pkg/platform/sentinel"
)

// InMemoryParamsStore keeps network configuration and the requirement edge
// set in process memory. Network configuration is small and read-heavy, so a
// single RWMutex over plain maps is enough.
type InMemoryParamsStore struct {
	mu       sync.RWMutex
	networks map[domain.NetID]models.NetworkParams
	edges    map[domain.NetID]map[domain.NetID]uint16
}

// NewInMemoryParamsStore creates an empty in-memory params store.
func NewInMemoryParamsStore() *InMemoryParamsStore {
	return &InMemoryParamsStore{
		networks: make(map[domain.NetID]models.NetworkParams),
		edges:    make(map[domain.NetID]map[domain.NetID]uint16),
	}
}

func (s *InMemoryParamsStore) Exists(_ context.Context, net domain.NetID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.networks[net]
	return ok, nil
}

func (s *InMemoryParamsStore) Params(_ context.Context, net domain.NetID) (models.NetworkParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.networks[net]
	if !ok {
		return models.NetworkParams{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *InMemoryParamsStore) Create(_ context.Context, net domain.NetID, p models.NetworkParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.networks[net]; ok {
		return sentinel.ErrConflict
	}
	s.networks[net] = p
	return nil
}

// Requirements returns edges in ascending target order so every node walks
// the requirement graph in the same order.
func (s *InMemoryParamsStore) Requirements(_ context.Context, from domain.NetID) ([]models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Requirement, 0, len(s.edges[from]))
	for to, threshold := range s.edges[from] {
		if _, ok := s.networks[to]; !ok {
			continue
		}
		out = append(out, models.Requirement{To: to, Threshold: threshold})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To < out[j].To })
	return out, nil
}

func (s *InMemoryParamsStore) SetRequirement(_ context.Context, from, to domain.NetID, threshold uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.networks[from]; !ok {
		return sentinel.ErrNotFound
	}
	if s.edges[from] == nil {
		s.edges[from] = make(map[domain.NetID]uint16)
	}
	s.edges[from][to] = threshold
	return nil
}

func (s *InMemoryParamsStore) Networks(_ context.Context) ([]domain.NetID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.NetID, 0, len(s.networks))
	for net := range s.networks {
		out = append(out, net)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
