package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"slotkeeper/internal/registry/metrics"
	"slotkeeper/internal/registry/models"
	"slotkeeper/internal/registry/ports"
	"slotkeeper/pkg/domain"
	dErrors "slotkeeper/pkg/domain-errors"
)

// Service applies registration transitions against the slot registry. A
// transition either fully commits or fully aborts with one of the errors in
// errors.go; no mutation happens before every check has passed.
//
// Transitions must be applied one at a time in the total order imposed by the
// surrounding submission layer. The internal mutex serializes calls arriving
// through this process; it does not coordinate across processes, so a
// deployment with multiple writers needs external serialization per network.
type Service struct {
	mu sync.Mutex

	slots    ports.SlotStore
	params   ports.ParamsStore
	counters ports.CounterStore
	ledger   ports.Ledger
	chain    ports.BlockSource

	events  ports.EventPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEventPublisher(events ports.EventPublisher) Option {
	return func(s *Service) {
		s.events = events
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(slots ports.SlotStore, params ports.ParamsStore, counters ports.CounterStore, ledger ports.Ledger, chain ports.BlockSource, opts ...Option) (*Service, error) {
	if slots == nil {
		return nil, fmt.Errorf("slot store is required")
	}
	if params == nil {
		return nil, fmt.Errorf("params store is required")
	}
	if counters == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if chain == nil {
		return nil, fmt.Errorf("block source is required")
	}

	svc := &Service{
		slots:    slots,
		params:   params,
		counters: counters,
		ledger:   ledger,
		chain:    chain,
		tracer:   otel.Tracer("slotkeeper/registry"),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if s := svc.logger; s == nil {
		svc.logger = slog.Default()
	}

	return svc, nil
}

// Register admits key into net, appending a new slot when the network has
// room and evicting the selection candidate otherwise. All validation runs
// before the first write.
func (s *Service) Register(ctx context.Context, net domain.NetID, key domain.Key) (models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "registry.Register",
		trace.WithAttributes(attribute.Int("netuid", int(net))))
	defer span.End()

	exists, err := s.params.Exists(ctx, net)
	if err != nil {
		return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to check network existence"))
	}
	if !exists {
		return models.Registration{}, s.abort(ErrNetworkDoesNotExist)
	}

	p, err := s.params.Params(ctx, net)
	if err != nil {
		return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to load network params"))
	}

	regsThisBlock, err := s.counters.RegistrationsThisBlock(ctx, net)
	if err != nil {
		return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to read block counter"))
	}
	if regsThisBlock >= p.MaxRegistrationsPerBlock {
		return models.Registration{}, s.abort(ErrTooManyRegistrationsThisBlock)
	}

	member, err := s.slots.IsMember(ctx, net, key)
	if err != nil {
		return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership"))
	}
	if member {
		return models.Registration{}, s.abort(ErrAlreadyRegistered)
	}

	eligible, err := s.MeetsConnectionRequirements(ctx, net, key)
	if err != nil {
		return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to evaluate connection requirements"))
	}
	if !eligible {
		return models.Registration{}, s.abort(ErrDidNotPassConnectedNetworkRequirement)
	}

	if err := s.ledger.EnsureAccount(ctx, key); err != nil {
		return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to ensure account"))
	}

	// A zero-capacity network is indistinguishable from an absent one.
	if p.Capacity == 0 {
		return models.Registration{}, s.abort(ErrNetworkDoesNotExist)
	}

	block := s.chain.CurrentBlock()
	occupied, err := s.slots.OccupiedCount(ctx, net)
	if err != nil {
		return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to read occupancy"))
	}

	var (
		uid     domain.UID
		evicted bool
	)
	if occupied < p.Capacity {
		uid, err = s.slots.Append(ctx, net, key, block)
		if err != nil {
			return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to append slot"))
		}
		occupied++
	} else {
		uid, err = s.SelectEvictionCandidate(ctx, net)
		if err != nil {
			return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to select eviction candidate"))
		}
		if err := s.slots.Replace(ctx, net, uid, key, block); err != nil {
			return models.Registration{}, s.abort(dErrors.Wrap(err, dErrors.CodeInternal, "failed to replace slot"))
		}
		evicted = true
	}

	if err := s.counters.IncrementInterval(ctx, net); err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to increment interval counter")
	}
	if err := s.counters.IncrementBlock(ctx, net); err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to increment block counter")
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration(net, evicted, occupied)
	}

	s.logger.InfoContext(ctx, "registered",
		"netuid", net,
		"uid", uid,
		"key", key,
		"block", block,
		"evicted", evicted,
	)

	reg := models.Registration{Net: net, UID: uid, Key: key, Block: block, Evicted: evicted}
	s.emitRegistered(ctx, reg)

	return reg, nil
}

// emitRegistered publishes the completion notification. The transition has
// already committed, so publish failures are logged, not propagated.
func (s *Service) emitRegistered(ctx context.Context, reg models.Registration) {
	if s.events == nil {
		return
	}
	event := models.RegisteredEvent{
		ID:    EventID(reg),
		Net:   reg.Net,
		UID:   reg.UID,
		Key:   reg.Key,
		Block: reg.Block,
	}
	if err := s.events.EmitRegistered(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit registration event",
			"netuid", reg.Net,
			"uid", reg.UID,
			"error", err,
		)
	}
}

func (s *Service) abort(err error) error {
	if s.metrics != nil {
		s.metrics.RecordAbort(abortReason(err))
	}
	return err
}
