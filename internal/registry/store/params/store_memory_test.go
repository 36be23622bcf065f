package params

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"slotkeeper/internal/registry/models"
	"slotkeeper/pkg/domain"
	"slotkeeper/pkg/platform/sentinel"
)

type ParamsStoreSuite struct {
	suite.Suite
	store *InMemoryParamsStore
}

func TestParamsStoreSuite(t *testing.T) {
	suite.Run(t, new(ParamsStoreSuite))
}

func (s *ParamsStoreSuite) SetupTest() {
	s.store = NewInMemoryParamsStore()
}

func (s *ParamsStoreSuite) TestNetworks() {
	ctx := context.Background()

	s.Run("create then read back", func() {
		s.SetupTest()
		p := models.NetworkParams{Capacity: 16, ImmunityPeriod: 100, MaxRegistrationsPerBlock: 4}
		s.Require().NoError(s.store.Create(ctx, 1, p))

		exists, err := s.store.Exists(ctx, 1)
		s.NoError(err)
		s.True(exists)

		got, err := s.store.Params(ctx, 1)
		s.NoError(err)
		s.Equal(p, got)
	})

	s.Run("duplicate create conflicts", func() {
		s.SetupTest()
		s.Require().NoError(s.store.Create(ctx, 1, models.NetworkParams{Capacity: 16}))
		err := s.store.Create(ctx, 1, models.NetworkParams{Capacity: 32})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown network", func() {
		s.SetupTest()
		exists, err := s.store.Exists(ctx, 9)
		s.NoError(err)
		s.False(exists)

		_, err = s.store.Params(ctx, 9)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("listing is sorted", func() {
		s.SetupTest()
		for _, n := range []domain.NetID{5, 1, 3} {
			s.Require().NoError(s.store.Create(ctx, n, models.NetworkParams{Capacity: 16}))
		}
		nets, err := s.store.Networks(ctx)
		s.NoError(err)
		s.Equal([]domain.NetID{1, 3, 5}, nets)
	})
}

func (s *ParamsStoreSuite) TestRequirements() {
	ctx := context.Background()

	create := func(nets ...domain.NetID) {
		for _, n := range nets {
			s.Require().NoError(s.store.Create(ctx, n, models.NetworkParams{Capacity: 16}))
		}
	}

	s.Run("edges come back in ascending target order", func() {
		s.SetupTest()
		create(1, 2, 3, 4)
		s.Require().NoError(s.store.SetRequirement(ctx, 1, 4, 40))
		s.Require().NoError(s.store.SetRequirement(ctx, 1, 2, 20))
		s.Require().NoError(s.store.SetRequirement(ctx, 1, 3, 30))

		edges, err := s.store.Requirements(ctx, 1)
		s.NoError(err)
		s.Equal([]models.Requirement{{To: 2, Threshold: 20}, {To: 3, Threshold: 30}, {To: 4, Threshold: 40}}, edges)
	})

	s.Run("setting an edge twice overwrites the threshold", func() {
		s.SetupTest()
		create(1, 2)
		s.Require().NoError(s.store.SetRequirement(ctx, 1, 2, 20))
		s.Require().NoError(s.store.SetRequirement(ctx, 1, 2, 99))

		edges, err := s.store.Requirements(ctx, 1)
		s.NoError(err)
		s.Equal([]models.Requirement{{To: 2, Threshold: 99}}, edges)
	})

	s.Run("edge from an unknown network is rejected", func() {
		s.SetupTest()
		create(2)
		err := s.store.SetRequirement(ctx, 1, 2, 20)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("edges to uncreated networks are filtered out", func() {
		s.SetupTest()
		create(1, 2)
		s.Require().NoError(s.store.SetRequirement(ctx, 1, 2, 20))
		s.Require().NoError(s.store.SetRequirement(ctx, 1, 77, 10))

		edges, err := s.store.Requirements(ctx, 1)
		s.NoError(err)
		s.Equal([]models.Requirement{{To: 2, Threshold: 20}}, edges)
	})
}
