// Package chain stands in for the external block-production layer: it
// provides the current block height and drives per-block housekeeping. The
// registry core only ever reads CurrentBlock; it never depends on timing.
package chain

import (
	"sync"
	"time"

	"slotkeeper/pkg/domain"
)

// Clock derives the block height from wall time at a fixed block interval.
// All replicas pointed at the same genesis and block time agree on heights
// to within clock skew; deployments that need exact agreement should swap in
// a BlockSource backed by the real ordering layer.
type Clock struct {
	genesis   time.Time
	blockTime time.Duration
}

// NewClock starts a clock at block 0 from now.
func NewClock(blockTime time.Duration) *Clock {
	return &Clock{genesis: time.Now(), blockTime: blockTime}
}

// NewClockAt starts a clock whose block 0 began at genesis.
func NewClockAt(genesis time.Time, blockTime time.Duration) *Clock {
	return &Clock{genesis: genesis, blockTime: blockTime}
}

func (c *Clock) CurrentBlock() domain.Block {
	elapsed := time.Since(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return domain.Block(elapsed / c.blockTime)
}

// Manual is a hand-advanced block source for tests and deterministic replay.
type Manual struct {
	mu    sync.RWMutex
	block domain.Block
}

// NewManual creates a manual block source at the given height.
func NewManual(start domain.Block) *Manual {
	return &Manual{block: start}
}

func (m *Manual) CurrentBlock() domain.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.block
}

// Advance moves the height forward by n blocks.
func (m *Manual) Advance(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block += domain.Block(n)
}

// Set jumps to an absolute height.
func (m *Manual) Set(block domain.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = block
}
