package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"slotkeeper/internal/chain"
	"slotkeeper/internal/events"
	"slotkeeper/internal/registry/models"
	"slotkeeper/internal/registry/store/counters"
	"slotkeeper/internal/registry/store/ledger"
	"slotkeeper/internal/registry/store/params"
	"slotkeeper/internal/registry/store/slots"
	"slotkeeper/pkg/domain"
)

// =============================================================================
// Registration Orchestrator Test Suite
// =============================================================================
// Covers the check ordering, the append-or-evict decision, counter updates,
// and the all-or-nothing abort guarantee.

type RegisterSuite struct {
	suite.Suite
	slots    *slots.InMemorySlotStore
	params   *params.InMemoryParamsStore
	counters *counters.InMemoryCounterStore
	ledger   *ledger.InMemoryLedger
	clock    *chain.Manual
	events   *events.MemoryPublisher
	service  *Service
}

func TestRegisterSuite(t *testing.T) {
	suite.Run(t, new(RegisterSuite))
}

func (s *RegisterSuite) SetupTest() {
	s.slots = slots.NewInMemorySlotStore()
	s.params = params.NewInMemoryParamsStore()
	s.counters = counters.NewInMemoryCounterStore()
	s.ledger = ledger.NewInMemoryLedger()
	s.clock = chain.NewManual(1000)
	s.events = events.NewMemoryPublisher()

	var err error
	s.service, err = New(s.slots, s.params, s.counters, s.ledger, s.clock,
		WithEventPublisher(s.events))
	s.Require().NoError(err)
}

const regNet = domain.NetID(7)

func (s *RegisterSuite) createNetwork(p models.NetworkParams) {
	s.Require().NoError(s.params.Create(context.Background(), regNet, p))
}

// snapshot captures everything a transition may touch so aborts can be
// verified bit-identical.
type registrySnapshot struct {
	slots    []models.Slot
	block    uint16
	interval uint16
	events   int
}

func (s *RegisterSuite) snapshot() registrySnapshot {
	ctx := context.Background()
	slotList, err := s.slots.Slots(ctx, regNet)
	s.Require().NoError(err)
	block, err := s.counters.RegistrationsThisBlock(ctx, regNet)
	s.Require().NoError(err)
	interval, err := s.counters.RegistrationsThisInterval(ctx, regNet)
	s.Require().NoError(err)
	return registrySnapshot{
		slots:    slotList,
		block:    block,
		interval: interval,
		events:   len(s.events.Events()),
	}
}

func (s *RegisterSuite) TestNew() {
	s.Run("nil slot store returns error", func() {
		_, err := New(nil, s.params, s.counters, s.ledger, s.clock)
		s.Error(err)
		s.Contains(err.Error(), "slot store is required")
	})

	s.Run("nil block source returns error", func() {
		_, err := New(s.slots, s.params, s.counters, s.ledger, nil)
		s.Error(err)
		s.Contains(err.Error(), "block source is required")
	})
}

func (s *RegisterSuite) TestRegisterAppend() {
	ctx := context.Background()

	s.Run("appends take consecutive uids", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 2, ImmunityPeriod: 0, MaxRegistrationsPerBlock: 8})

		regA, err := s.service.Register(ctx, regNet, "A")
		s.NoError(err)
		s.Equal(domain.UID(0), regA.UID)
		s.False(regA.Evicted)

		regB, err := s.service.Register(ctx, regNet, "B")
		s.NoError(err)
		s.Equal(domain.UID(1), regB.UID)

		occupied, err := s.slots.OccupiedCount(ctx, regNet)
		s.NoError(err)
		s.Equal(uint16(2), occupied)
	})

	s.Run("registration records the current block", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 4, MaxRegistrationsPerBlock: 8})
		s.clock.Set(1234)

		reg, err := s.service.Register(ctx, regNet, "A")
		s.NoError(err)
		s.Equal(domain.Block(1234), reg.Block)

		block, err := s.slots.RegistrationBlock(ctx, regNet, reg.UID)
		s.NoError(err)
		s.Equal(domain.Block(1234), block)
	})

	s.Run("registration creates the ledger account", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 4, MaxRegistrationsPerBlock: 8})

		_, err := s.service.Register(ctx, regNet, "A")
		s.NoError(err)
		s.True(s.ledger.Exists("A"))
	})

	s.Run("counters increment by exactly one", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 4, MaxRegistrationsPerBlock: 8})

		_, err := s.service.Register(ctx, regNet, "A")
		s.NoError(err)

		block, err := s.counters.RegistrationsThisBlock(ctx, regNet)
		s.NoError(err)
		s.Equal(uint16(1), block)
		interval, err := s.counters.RegistrationsThisInterval(ctx, regNet)
		s.NoError(err)
		s.Equal(uint16(1), interval)
	})

	s.Run("emits one event with a deterministic id", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 4, MaxRegistrationsPerBlock: 8})

		reg, err := s.service.Register(ctx, regNet, "A")
		s.NoError(err)

		emitted := s.events.Events()
		s.Require().Len(emitted, 1)
		s.Equal(EventID(reg), emitted[0].ID)
		s.Equal(reg.UID, emitted[0].UID)
		s.Equal(domain.Key("A"), emitted[0].Key)
	})
}

func (s *RegisterSuite) TestRegisterEviction() {
	ctx := context.Background()

	s.Run("full network evicts the higher-indexed score tie", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 2, ImmunityPeriod: 0, MaxRegistrationsPerBlock: 8})

		_, err := s.service.Register(ctx, regNet, "A")
		s.Require().NoError(err)
		_, err = s.service.Register(ctx, regNet, "B")
		s.Require().NoError(err)
		s.Require().NoError(s.slots.SetPruningScore(ctx, regNet, 0, 10))
		s.Require().NoError(s.slots.SetPruningScore(ctx, regNet, 1, 10))

		reg, err := s.service.Register(ctx, regNet, "C")
		s.NoError(err)
		s.True(reg.Evicted)
		s.Equal(domain.UID(1), reg.UID)

		// B is gone, C holds uid 1, occupancy unchanged.
		member, err := s.slots.IsMember(ctx, regNet, "B")
		s.NoError(err)
		s.False(member)
		uid, err := s.slots.UIDOf(ctx, regNet, "C")
		s.NoError(err)
		s.Equal(domain.UID(1), uid)
		occupied, err := s.slots.OccupiedCount(ctx, regNet)
		s.NoError(err)
		s.Equal(uint16(2), occupied)
	})

	s.Run("evicted slot keeps the hand-off score until re-scored", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 1, ImmunityPeriod: 0, MaxRegistrationsPerBlock: 8})

		_, err := s.service.Register(ctx, regNet, "A")
		s.Require().NoError(err)

		reg, err := s.service.Register(ctx, regNet, "B")
		s.NoError(err)
		s.True(reg.Evicted)

		score, err := s.slots.PruningScore(ctx, regNet, reg.UID)
		s.NoError(err)
		s.Equal(domain.MaxScore, score)
	})

	s.Run("immune occupants are spared when a non-immune one exists", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 2, ImmunityPeriod: 50, MaxRegistrationsPerBlock: 8})

		s.clock.Set(1000)
		_, err := s.service.Register(ctx, regNet, "A")
		s.Require().NoError(err)
		s.clock.Set(1060) // A is out of immunity
		_, err = s.service.Register(ctx, regNet, "B")
		s.Require().NoError(err)
		s.Require().NoError(s.slots.SetPruningScore(ctx, regNet, 0, 100))
		s.Require().NoError(s.slots.SetPruningScore(ctx, regNet, 1, 1))

		// B scores far lower but is immune; A is evicted.
		reg, err := s.service.Register(ctx, regNet, "C")
		s.NoError(err)
		s.Equal(domain.UID(0), reg.UID)
	})
}

func (s *RegisterSuite) TestRegisterAborts() {
	ctx := context.Background()

	s.Run("unknown network", func() {
		s.SetupTest()
		_, err := s.service.Register(ctx, regNet, "A")
		s.ErrorIs(err, ErrNetworkDoesNotExist)
	})

	s.Run("zero capacity is treated as nonexistent", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 0, MaxRegistrationsPerBlock: 8})

		before := s.snapshot()
		_, err := s.service.Register(ctx, regNet, "A")
		s.ErrorIs(err, ErrNetworkDoesNotExist)
		s.Equal(before, s.snapshot())
	})

	s.Run("per-block throttle", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 8, MaxRegistrationsPerBlock: 1})

		_, err := s.service.Register(ctx, regNet, "A")
		s.Require().NoError(err)

		before := s.snapshot()
		_, err = s.service.Register(ctx, regNet, "B")
		s.ErrorIs(err, ErrTooManyRegistrationsThisBlock)
		s.Equal(before, s.snapshot())

		// A new block resets the throttle.
		s.Require().NoError(s.counters.ResetBlock(ctx))
		_, err = s.service.Register(ctx, regNet, "B")
		s.NoError(err)
	})

	s.Run("already registered", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 8, MaxRegistrationsPerBlock: 8})

		_, err := s.service.Register(ctx, regNet, "A")
		s.Require().NoError(err)

		before := s.snapshot()
		_, err = s.service.Register(ctx, regNet, "A")
		s.ErrorIs(err, ErrAlreadyRegistered)
		s.Equal(before, s.snapshot())
	})

	s.Run("failed connection requirement", func() {
		s.SetupTest()
		s.createNetwork(models.NetworkParams{Capacity: 8, MaxRegistrationsPerBlock: 8})
		other := domain.NetID(8)
		s.Require().NoError(s.params.Create(ctx, other, models.NetworkParams{Capacity: 8, MaxRegistrationsPerBlock: 8}))
		s.Require().NoError(s.params.SetRequirement(ctx, regNet, other, 65535))

		// other is empty, so no key can satisfy the edge.
		before := s.snapshot()
		_, err := s.service.Register(ctx, regNet, "A")
		s.ErrorIs(err, ErrDidNotPassConnectedNetworkRequirement)
		s.Equal(before, s.snapshot())
		s.Empty(s.events.Events())
	})
}
