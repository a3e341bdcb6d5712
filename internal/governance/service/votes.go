package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/audit"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/requestcontext"
)

// CastVote records actor's vote. The deadline is checked against the clock,
// so a vote after expiresAt is refused even before the sweep resolves the
// proposal.
func (s *Service) CastVote(ctx context.Context, proposalID id.ProposalID, actorID id.ActorID, choice models.Choice) (_ *models.Vote, err error) {
	ctx, end := s.begin(ctx, "cast_vote", attribute.String("proposal_id", proposalID.String()))
	defer func() { end(err) }()

	if choice != models.ChoiceYes && choice != models.ChoiceNo {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "choice must be yes or no")
	}
	p, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if !p.IsPending() {
		return nil, dErrors.New(dErrors.CodeNotPending, "proposal is already "+p.Status.String())
	}
	if p.IsExpiredAt(now) {
		return nil, dErrors.New(dErrors.CodeExpired, "voting closed at "+p.ExpiresAt.UTC().Format(time.RFC3339))
	}
	rule, err := s.ruleFor(p)
	if err != nil {
		return nil, err
	}
	rank, err := s.gate.RequireVote(ctx, rule, p.CommunityID, actorID)
	if err != nil {
		return nil, err
	}

	v := &models.Vote{
		ID:         id.NewVoteID(),
		ProposalID: p.ID,
		VoterID:    actorID,
		VoterRank:  rank,
		Choice:     choice,
		CreatedAt:  now,
	}
	if err := s.votes.Insert(ctx, v); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeAlreadyVoted, "actor has already voted on this proposal")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "proposal not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
	}

	s.logAudit(ctx, audit.EventVoteCast,
		"community_id", p.CommunityID.String(),
		"proposal_id", p.ID.String(),
		"actor_id", actorID.String(),
		"law_kind", p.LawKind.String(),
		"decision", string(choice),
	)
	s.metrics.IncrementVotesCast(string(choice))
	return v, nil
}

// Tally returns the current vote aggregate for display.
func (s *Service) Tally(ctx context.Context, proposalID id.ProposalID) (_ models.Tally, err error) {
	ctx, end := s.begin(ctx, "tally", attribute.String("proposal_id", proposalID.String()))
	defer func() { end(err) }()

	p, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return models.Tally{}, err
	}
	return s.tallyFor(ctx, p)
}

// ListVotes returns the proposal's votes in cast order.
func (s *Service) ListVotes(ctx context.Context, proposalID id.ProposalID) (_ []*models.Vote, err error) {
	ctx, end := s.begin(ctx, "list_votes", attribute.String("proposal_id", proposalID.String()))
	defer func() { end(err) }()

	if _, err := s.findProposal(ctx, proposalID); err != nil {
		return nil, err
	}
	votes, err := s.votes.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list votes")
	}
	return votes, nil
}

// tallyFor counts votes and the members currently eligible to vote. A
// proposal whose rule has left the table reports zero eligible voters.
func (s *Service) tallyFor(ctx context.Context, p *models.Proposal) (models.Tally, error) {
	counts, err := s.votes.Counts(ctx, p.ID)
	if err != nil {
		return models.Tally{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count votes")
	}
	eligible := 0
	if rule, ok := s.rules.Get(p.LawKind, p.GovernanceKind); ok {
		eligible, err = s.members.CountEligible(ctx, p.CommunityID, rule.VoteRanks.Slice())
		if err != nil {
			return models.Tally{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count eligible voters")
		}
	}
	return models.NewTally(counts, eligible), nil
}

// ruleFor resolves the rule a proposal was opened under.
func (s *Service) ruleFor(p *models.Proposal) (models.GovernanceRule, error) {
	rule, ok := s.rules.Get(p.LawKind, p.GovernanceKind)
	if !ok {
		return models.GovernanceRule{}, dErrors.New(dErrors.CodeUnknownLaw,
			p.LawKind.String()+" is no longer a law under "+p.GovernanceKind.String())
	}
	return rule, nil
}
