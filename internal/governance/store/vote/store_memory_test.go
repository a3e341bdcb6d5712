package vote

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store    *InMemory
	ctx      context.Context
	proposal id.ProposalID
	now      time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.proposal = id.NewProposalID()
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) vote(voter id.ActorID, rank models.RankTier, choice models.Choice, at time.Time) *models.Vote {
	return &models.Vote{
		ID:         id.NewVoteID(),
		ProposalID: s.proposal,
		VoterID:    voter,
		VoterRank:  rank,
		Choice:     choice,
		CreatedAt:  at,
	}
}

func (s *InMemoryStoreSuite) TestOneVotePerVoter() {
	s.Require().NoError(s.store.Insert(s.ctx, s.vote("alice", 1, models.ChoiceYes, s.now)))

	s.Run("second vote is ErrAlreadyUsed even with a different choice", func() {
		err := s.store.Insert(s.ctx, s.vote("alice", 1, models.ChoiceNo, s.now))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("the first vote stands", func() {
		c, err := s.store.Counts(s.ctx, s.proposal)
		s.Require().NoError(err)
		s.Equal(models.VoteCounts{Yes: 1}, c)
	})

	s.Run("same voter may vote on another proposal", func() {
		other := s.vote("alice", 1, models.ChoiceNo, s.now)
		other.ProposalID = id.NewProposalID()
		s.Require().NoError(s.store.Insert(s.ctx, other))
	})
}

func (s *InMemoryStoreSuite) TestConcurrentCasts() {
	const goroutines = 40
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		dupes     atomic.Int32
	)
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			choice := models.ChoiceYes
			if i%2 == 0 {
				choice = models.ChoiceNo
			}
			err := s.store.Insert(s.ctx, s.vote("bob", 2, choice, s.now))
			switch err {
			case nil:
				successes.Add(1)
			case sentinel.ErrAlreadyUsed:
				dupes.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), dupes.Load())

	c, err := s.store.Counts(s.ctx, s.proposal)
	s.Require().NoError(err)
	s.Equal(1, c.Yes+c.No)
}

func (s *InMemoryStoreSuite) TestCountsUseRankAtCast() {
	s.Require().NoError(s.store.Insert(s.ctx, s.vote("king", models.TopRank, models.ChoiceYes, s.now)))
	s.Require().NoError(s.store.Insert(s.ctx, s.vote("duke", 1, models.ChoiceYes, s.now)))
	s.Require().NoError(s.store.Insert(s.ctx, s.vote("earl", 2, models.ChoiceNo, s.now)))
	s.Require().NoError(s.store.Insert(s.ctx, s.vote("regent", models.TopRank, models.ChoiceNo, s.now)))

	c, err := s.store.Counts(s.ctx, s.proposal)
	s.Require().NoError(err)
	s.Equal(models.VoteCounts{Yes: 2, No: 2, TopRankYes: 1}, c)

	empty, err := s.store.Counts(s.ctx, id.NewProposalID())
	s.Require().NoError(err)
	s.Zero(empty)
}

func (s *InMemoryStoreSuite) TestListByProposal() {
	later := s.vote("b", 1, models.ChoiceNo, s.now.Add(time.Minute))
	earlier := s.vote("a", 1, models.ChoiceYes, s.now)
	s.Require().NoError(s.store.Insert(s.ctx, later))
	s.Require().NoError(s.store.Insert(s.ctx, earlier))

	votes, err := s.store.ListByProposal(s.ctx, s.proposal)
	s.Require().NoError(err)
	s.Require().Len(votes, 2)
	s.Equal(earlier.ID, votes[0].ID)
	s.Equal(later.ID, votes[1].ID)

	votes[0].Choice = models.ChoiceNo
	again, _ := s.store.ListByProposal(s.ctx, s.proposal)
	s.Equal(models.ChoiceYes, again[0].Choice, "callers get copies")
}
