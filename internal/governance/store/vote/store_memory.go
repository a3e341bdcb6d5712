// Package vote persists the append-only vote log. Each (proposal, voter)
// pair holds at most one vote.
package vote

import (
	"context"
	"slices"
	"sync"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

type voterKey struct {
	proposal id.ProposalID
	voter    id.ActorID
}

type InMemory struct {
	mu         sync.RWMutex
	byProposal map[id.ProposalID][]*models.Vote
	cast       map[voterKey]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		byProposal: make(map[id.ProposalID][]*models.Vote),
		cast:       make(map[voterKey]struct{}),
	}
}

// Insert appends v, or returns sentinel.ErrAlreadyUsed if the voter already
// voted on the proposal.
func (s *InMemory) Insert(_ context.Context, v *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voterKey{proposal: v.ProposalID, voter: v.VoterID}
	if _, voted := s.cast[key]; voted {
		return sentinel.ErrAlreadyUsed
	}
	stored := *v
	s.cast[key] = struct{}{}
	s.byProposal[v.ProposalID] = append(s.byProposal[v.ProposalID], &stored)
	return nil
}

// Counts aggregates yes, no and top-rank yes votes using the rank each voter
// held when casting.
func (s *InMemory) Counts(_ context.Context, proposalID id.ProposalID) (models.VoteCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c models.VoteCounts
	for _, v := range s.byProposal[proposalID] {
		switch v.Choice {
		case models.ChoiceYes:
			c.Yes++
			if v.VoterRank == models.TopRank {
				c.TopRankYes++
			}
		case models.ChoiceNo:
			c.No++
		}
	}
	return c, nil
}

// ListByProposal returns votes in cast order.
func (s *InMemory) ListByProposal(_ context.Context, proposalID id.ProposalID) ([]*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := s.byProposal[proposalID]
	out := make([]*models.Vote, 0, len(votes))
	for _, v := range votes {
		c := *v
		out = append(out, &c)
	}
	slices.SortStableFunc(out, func(a, b *models.Vote) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}
