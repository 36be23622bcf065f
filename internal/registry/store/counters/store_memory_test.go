package counters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"slotkeeper/pkg/domain"
)

type CounterStoreSuite struct {
	suite.Suite
	store *InMemoryCounterStore
}

func TestCounterStoreSuite(t *testing.T) {
	suite.Run(t, new(CounterStoreSuite))
}

func (s *CounterStoreSuite) SetupTest() {
	s.store = NewInMemoryCounterStore()
}

func (s *CounterStoreSuite) TestCounters() {
	ctx := context.Background()
	net := domain.NetID(1)

	s.Run("counters start at zero", func() {
		s.SetupTest()
		block, err := s.store.RegistrationsThisBlock(ctx, net)
		s.NoError(err)
		s.Zero(block)
		interval, err := s.store.RegistrationsThisInterval(ctx, net)
		s.NoError(err)
		s.Zero(interval)
	})

	s.Run("increments are independent per counter and network", func() {
		s.SetupTest()
		other := domain.NetID(2)
		s.Require().NoError(s.store.IncrementBlock(ctx, net))
		s.Require().NoError(s.store.IncrementBlock(ctx, net))
		s.Require().NoError(s.store.IncrementInterval(ctx, net))

		block, err := s.store.RegistrationsThisBlock(ctx, net)
		s.NoError(err)
		s.Equal(uint16(2), block)
		interval, err := s.store.RegistrationsThisInterval(ctx, net)
		s.NoError(err)
		s.Equal(uint16(1), interval)

		block, err = s.store.RegistrationsThisBlock(ctx, other)
		s.NoError(err)
		s.Zero(block)
	})

	s.Run("block reset leaves the interval counter alone", func() {
		s.SetupTest()
		s.Require().NoError(s.store.IncrementBlock(ctx, net))
		s.Require().NoError(s.store.IncrementInterval(ctx, net))

		s.Require().NoError(s.store.ResetBlock(ctx))

		block, err := s.store.RegistrationsThisBlock(ctx, net)
		s.NoError(err)
		s.Zero(block)
		interval, err := s.store.RegistrationsThisInterval(ctx, net)
		s.NoError(err)
		s.Equal(uint16(1), interval)
	})

	s.Run("interval reset clears every network", func() {
		s.SetupTest()
		other := domain.NetID(2)
		s.Require().NoError(s.store.IncrementInterval(ctx, net))
		s.Require().NoError(s.store.IncrementInterval(ctx, other))

		s.Require().NoError(s.store.ResetInterval(ctx))

		for _, n := range []domain.NetID{net, other} {
			interval, err := s.store.RegistrationsThisInterval(ctx, n)
			s.NoError(err)
			s.Zero(interval)
		}
	})
}
