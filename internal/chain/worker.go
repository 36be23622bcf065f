package chain

import (
	"context"
	"log/slog"
	"time"

	"slotkeeper/internal/registry/ports"
	"slotkeeper/pkg/domain"
)

// Worker watches the block source and resets the registration throttle
// counters: per-block counters on every new block, per-interval counters on
// every interval boundary. It keeps background housekeeping testable without
// tying the counter stores to wall time.
type Worker struct {
	clock          ports.BlockSource
	counters       ports.CounterStore
	poll           time.Duration
	intervalBlocks uint64
	logger         *slog.Logger
}

// NewWorker creates a counter-reset worker. poll should be a fraction of the
// block time so block boundaries are not missed by much.
func NewWorker(clock ports.BlockSource, counters ports.CounterStore, poll time.Duration, intervalBlocks uint64, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		clock:          clock,
		counters:       counters,
		poll:           poll,
		intervalBlocks: intervalBlocks,
		logger:         logger,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	last := w.clock.CurrentBlock()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			current := w.clock.CurrentBlock()
			if current == last {
				continue
			}
			if err := w.Step(ctx, current); err != nil {
				return err
			}
			last = current
		}
	}
}

// Step performs the housekeeping for having reached the given block. Exposed
// so tests can drive block transitions without a ticker.
func (w *Worker) Step(ctx context.Context, block domain.Block) error {
	if err := w.counters.ResetBlock(ctx); err != nil {
		w.logger.ErrorContext(ctx, "failed to reset block counters", "block", block, "error", err)
		return err
	}
	if w.intervalBlocks > 0 && uint64(block)%w.intervalBlocks == 0 {
		if err := w.counters.ResetInterval(ctx); err != nil {
			w.logger.ErrorContext(ctx, "failed to reset interval counters", "block", block, "error", err)
			return err
		}
	}
	return nil
}
