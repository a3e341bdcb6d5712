// Package proposal persists proposals and enforces the one-pending-per-law
// guard and the pending-to-terminal compare-and-swap.
package proposal

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

type pendingKey struct {
	community id.CommunityID
	law       models.LawKind
}

// InMemory is a process-local store. A single mutex serializes writes, which
// gives the same uniqueness and CAS guarantees as the Postgres store.
type InMemory struct {
	mu        sync.RWMutex
	proposals map[id.ProposalID]*models.Proposal
	pending   map[pendingKey]id.ProposalID
}

func NewInMemory() *InMemory {
	return &InMemory{
		proposals: make(map[id.ProposalID]*models.Proposal),
		pending:   make(map[pendingKey]id.ProposalID),
	}
}

// CreatePending inserts p unless the community already has a pending
// proposal for the same law kind.
func (s *InMemory) CreatePending(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pendingKey{community: p.CommunityID, law: p.LawKind}
	if _, taken := s.pending[key]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.proposals[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.proposals[p.ID] = p.Clone()
	s.pending[key] = p.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[proposalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

// ListByCommunity returns the community's proposals, newest first, filtered to
// statuses when any are given.
func (s *InMemory) ListByCommunity(_ context.Context, communityID id.CommunityID, statuses []models.Status) ([]*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Proposal
	for _, p := range s.proposals {
		if p.CommunityID != communityID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, p.Status) {
			continue
		}
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Proposal) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out, nil
}

// ListExpiredPending returns up to limit pending proposals whose deadline is
// at or before now, oldest deadline first.
func (s *InMemory) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Proposal
	for _, p := range s.proposals {
		if p.IsPending() && p.IsExpiredAt(now) {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Proposal) int {
		if c := a.ExpiresAt.Compare(b.ExpiresAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Transition applies t only while the proposal is still pending. It reports
// whether this call performed the transition.
func (s *InMemory) Transition(_ context.Context, t models.Transition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[t.ProposalID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if !p.IsPending() {
		return false, nil
	}
	resolved := t.ResolvedAt
	p.Status = t.To
	p.ResolvedAt = &resolved
	p.ResolutionNotes = t.Notes
	p.ExecutionState = t.ExecutionState()
	p.ExecutionAttempts = t.ExecutionAttempts()
	if t.To == models.StatusPassed {
		claimed := resolved
		p.ExecutionClaimedAt = &claimed
	}
	delete(s.pending, pendingKey{community: p.CommunityID, law: p.LawKind})
	return true, nil
}

// RecordExecution stores an attempt's result if no newer attempt has been
// claimed since.
func (s *InMemory) RecordExecution(_ context.Context, rec models.ExecutionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[rec.ProposalID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if p.Status != models.StatusPassed || p.ExecutionAttempts != rec.Attempt {
		return false, nil
	}
	p.ExecutionState = rec.State
	if rec.Note != "" {
		p.ResolutionNotes = models.AppendNote(p.ResolutionNotes, rec.Note)
	}
	return true, nil
}

// ListRedispatchable returns passed proposals whose execution failed, or
// whose pending attempt was claimed at or before staleBefore, with fewer than
// maxAttempts attempts so far.
func (s *InMemory) ListRedispatchable(_ context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Proposal
	for _, p := range s.proposals {
		if redispatchable(p, staleBefore, maxAttempts) {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Proposal) int {
		if c := a.ResolvedAt.Compare(*b.ResolvedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ClaimExecution opens a new attempt if the attempt counter still equals
// observedAttempts. Exactly one concurrent claimer wins.
func (s *InMemory) ClaimExecution(_ context.Context, proposalID id.ProposalID, observedAttempts int, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[proposalID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if p.Status != models.StatusPassed || p.ExecutionAttempts != observedAttempts {
		return false, nil
	}
	if p.ExecutionState != models.ExecutionFailed && p.ExecutionState != models.ExecutionPending {
		return false, nil
	}
	claimed := now
	p.ExecutionAttempts++
	p.ExecutionState = models.ExecutionPending
	p.ExecutionClaimedAt = &claimed
	return true, nil
}

func redispatchable(p *models.Proposal, staleBefore time.Time, maxAttempts int) bool {
	if p.Status != models.StatusPassed || p.ExecutionAttempts >= maxAttempts {
		return false
	}
	switch p.ExecutionState {
	case models.ExecutionFailed:
		return true
	case models.ExecutionPending:
		return p.ExecutionClaimedAt != nil && !p.ExecutionClaimedAt.After(staleBefore)
	default:
		return false
	}
}

func compareIDs(a, b id.ProposalID) int {
	return strings.Compare(a.String(), b.String())
}
