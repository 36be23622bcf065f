package counters

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"slotkeeper/pkg/domain"
)

const (
	blockHashKey    = "slotkeeper:registrations:block"
	intervalHashKey = "slotkeeper:registrations:interval"
)

// RedisCounterStore keeps registration counters in Redis hashes so multiple
// service replicas behind one sequencer observe the same throttle state.
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore creates a Redis-backed counter store.
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) RegistrationsThisBlock(ctx context.Context, net domain.NetID) (uint16, error) {
	return s.get(ctx, blockHashKey, net)
}

func (s *RedisCounterStore) RegistrationsThisInterval(ctx context.Context, net domain.NetID) (uint16, error) {
	return s.get(ctx, intervalHashKey, net)
}

func (s *RedisCounterStore) IncrementBlock(ctx context.Context, net domain.NetID) error {
	if err := s.client.HIncrBy(ctx, blockHashKey, net.String(), 1).Err(); err != nil {
		return fmt.Errorf("increment block counter: %w", err)
	}
	return nil
}

func (s *RedisCounterStore) IncrementInterval(ctx context.Context, net domain.NetID) error {
	if err := s.client.HIncrBy(ctx, intervalHashKey, net.String(), 1).Err(); err != nil {
		return fmt.Errorf("increment interval counter: %w", err)
	}
	return nil
}

func (s *RedisCounterStore) ResetBlock(ctx context.Context) error {
	if err := s.client.Del(ctx, blockHashKey).Err(); err != nil {
		return fmt.Errorf("reset block counters: %w", err)
	}
	return nil
}

func (s *RedisCounterStore) ResetInterval(ctx context.Context) error {
	if err := s.client.Del(ctx, intervalHashKey).Err(); err != nil {
		return fmt.Errorf("reset interval counters: %w", err)
	}
	return nil
}

func (s *RedisCounterStore) get(ctx context.Context, hash string, net domain.NetID) (uint16, error) {
	val, err := s.client.HGet(ctx, hash, net.String()).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return uint16(val), nil
}
