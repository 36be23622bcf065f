package ledger

import (
	"context"
	"sync"

	"slotkeeper/pkg/domain"
)

// InMemoryLedger records which accounts exist. The registry only ever asks
// for idempotent creation; balances live with the external ledger proper.
type InMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[domain.Key]struct{}
}

// NewInMemoryLedger creates an empty in-memory ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{accounts: make(map[domain.Key]struct{})}
}

func (l *InMemoryLedger) EnsureAccount(_ context.Context, key domain.Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[key] = struct{}{}
	return nil
}

// Exists reports whether an account has been created. Used by tests.
func (l *InMemoryLedger) Exists(key domain.Key) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.accounts[key]
	return ok
}
