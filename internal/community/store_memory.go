package community

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

type memberKey struct {
	community id.CommunityID
	actor     id.ActorID
}

// InMemory implements the membership, community and conflict ports in
// process. Used by tests and single-node development runs.
type InMemory struct {
	mu          sync.RWMutex
	communities map[id.CommunityID]*Community
	members     map[memberKey]models.RankTier
	conflicts   map[id.ProposalID]*Conflict
	now         func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		communities: make(map[id.CommunityID]*Community),
		members:     make(map[memberKey]models.RankTier),
		conflicts:   make(map[id.ProposalID]*Conflict),
		now:         time.Now,
	}
}

// SaveCommunity creates or replaces a community.
func (s *InMemory) SaveCommunity(_ context.Context, c Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := c
	s.communities[c.ID] = &stored
	return nil
}

// SaveMember creates or updates a membership.
func (s *InMemory) SaveMember(_ context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.communities[m.CommunityID]; !ok {
		return sentinel.ErrNotFound
	}
	s.members[memberKey{community: m.CommunityID, actor: m.ActorID}] = m.Rank
	return nil
}

// RemoveMember deletes a membership if present.
func (s *InMemory) RemoveMember(_ context.Context, community id.CommunityID, actor id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, memberKey{community: community, actor: actor})
	return nil
}

func (s *InMemory) FindCommunity(_ context.Context, community id.CommunityID) (*Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.communities[community]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *InMemory) Rank(_ context.Context, community id.CommunityID, actor id.ActorID) (models.RankTier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rank, ok := s.members[memberKey{community: community, actor: actor}]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return rank, nil
}

func (s *InMemory) CountEligible(_ context.Context, community id.CommunityID, ranks []models.RankTier) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k, rank := range s.members {
		if k.community == community && slices.Contains(ranks, rank) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) GovernanceKind(_ context.Context, community id.CommunityID) (models.GovernanceKind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.communities[community]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return c.GovernanceKind, nil
}

// SetGovernanceKind is idempotent: repeating it for the same proposal leaves
// the same state.
func (s *InMemory) SetGovernanceKind(_ context.Context, community id.CommunityID, kind models.GovernanceKind, _ id.ProposalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.communities[community]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.GovernanceKind = kind
	c.UpdatedAt = s.now()
	return nil
}

func (s *InMemory) SetSuccessor(_ context.Context, community id.CommunityID, successor id.ActorID, _ id.ProposalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.communities[community]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.SuccessorID = successor
	c.UpdatedAt = s.now()
	return nil
}

// OpenConflict opens at most one conflict per proposal; a repeat returns the
// first conflict's ID.
func (s *InMemory) OpenConflict(_ context.Context, initiator, target id.CommunityID, proposalID id.ProposalID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.conflicts[proposalID]; ok {
		return existing.ID, nil
	}
	if _, ok := s.communities[target]; !ok {
		return "", sentinel.ErrNotFound
	}
	c := &Conflict{
		ID:               uuid.NewString(),
		InitiatorID:      initiator,
		TargetID:         target,
		SourceProposalID: proposalID,
		OpenedAt:         s.now(),
	}
	s.conflicts[proposalID] = c
	return c.ID, nil
}

// Conflicts lists every opened conflict.
func (s *InMemory) Conflicts() []Conflict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Conflict, 0, len(s.conflicts))
	for _, c := range s.conflicts {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Conflict) int { return a.OpenedAt.Compare(b.OpenedAt) })
	return out
}
