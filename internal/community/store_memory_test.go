package community

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.Require().NoError(s.store.SaveCommunity(s.ctx, Community{ID: "north", Name: "North", GovernanceKind: models.GovernanceMonarchy, LeaderID: "king"}))
	s.Require().NoError(s.store.SaveCommunity(s.ctx, Community{ID: "south", Name: "South", GovernanceKind: models.GovernanceMonarchy}))
	for actor, rank := range map[id.ActorID]models.RankTier{"king": 0, "duke": 1, "knight": 2, "peasant": 5} {
		s.Require().NoError(s.store.SaveMember(s.ctx, Member{CommunityID: "north", ActorID: actor, Rank: rank}))
	}
}

// =============================================================================
// Membership
// =============================================================================

func (s *InMemorySuite) TestRank() {
	s.Run("returns member rank", func() {
		rank, err := s.store.Rank(s.ctx, "north", "duke")
		s.Require().NoError(err)
		s.Equal(models.RankTier(1), rank)
	})

	s.Run("non-member is not found", func() {
		_, err := s.store.Rank(s.ctx, "south", "duke")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("removed member is not found", func() {
		s.Require().NoError(s.store.RemoveMember(s.ctx, "north", "knight"))
		_, err := s.store.Rank(s.ctx, "north", "knight")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemorySuite) TestSaveMemberUnknownCommunity() {
	err := s.store.SaveMember(s.ctx, Member{CommunityID: "nowhere", ActorID: "x", Rank: 1})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestCountEligible() {
	n, err := s.store.CountEligible(s.ctx, "north", []models.RankTier{0, 1, 2})
	s.Require().NoError(err)
	s.Equal(3, n)

	n, err = s.store.CountEligible(s.ctx, "north", nil)
	s.Require().NoError(err)
	s.Equal(0, n)

	n, err = s.store.CountEligible(s.ctx, "south", []models.RankTier{0, 1, 2})
	s.Require().NoError(err)
	s.Equal(0, n)
}

// =============================================================================
// Governance state
// =============================================================================

func (s *InMemorySuite) TestGovernanceKind() {
	kind, err := s.store.GovernanceKind(s.ctx, "north")
	s.Require().NoError(err)
	s.Equal(models.GovernanceMonarchy, kind)

	_, err = s.store.GovernanceKind(s.ctx, "nowhere")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestSetGovernanceKindIsRepeatable() {
	pid := id.NewProposalID()
	s.Require().NoError(s.store.SetGovernanceKind(s.ctx, "north", models.GovernanceDemocracy, pid))
	s.Require().NoError(s.store.SetGovernanceKind(s.ctx, "north", models.GovernanceDemocracy, pid))

	c, err := s.store.FindCommunity(s.ctx, "north")
	s.Require().NoError(err)
	s.Equal(models.GovernanceDemocracy, c.GovernanceKind)
	s.False(c.UpdatedAt.IsZero())

	s.ErrorIs(s.store.SetGovernanceKind(s.ctx, "nowhere", models.GovernanceDemocracy, pid), sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestSetSuccessor() {
	s.Require().NoError(s.store.SetSuccessor(s.ctx, "north", "duke", id.NewProposalID()))
	c, err := s.store.FindCommunity(s.ctx, "north")
	s.Require().NoError(err)
	s.Equal(id.ActorID("duke"), c.SuccessorID)

	s.ErrorIs(s.store.SetSuccessor(s.ctx, "nowhere", "duke", id.NewProposalID()), sentinel.ErrNotFound)
}

// =============================================================================
// Conflicts
// =============================================================================

func (s *InMemorySuite) TestOpenConflict() {
	s.Run("one conflict per proposal", func() {
		pid := id.NewProposalID()
		first, err := s.store.OpenConflict(s.ctx, "north", "south", pid)
		s.Require().NoError(err)
		second, err := s.store.OpenConflict(s.ctx, "north", "south", pid)
		s.Require().NoError(err)
		s.Equal(first, second)
		s.Len(s.store.Conflicts(), 1)
	})

	s.Run("unknown target", func() {
		_, err := s.store.OpenConflict(s.ctx, "north", "nowhere", id.NewProposalID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemorySuite) TestOpenConflictConcurrent() {
	pid := id.NewProposalID()
	const goroutines = 20

	var wg sync.WaitGroup
	ids := make([]string, goroutines)
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], _ = s.store.OpenConflict(s.ctx, "north", "south", pid)
		}(i)
	}
	wg.Wait()

	for _, got := range ids {
		s.Equal(ids[0], got)
	}
	s.Len(s.store.Conflicts(), 1)
}
