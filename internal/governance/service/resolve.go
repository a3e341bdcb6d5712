package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/audit"
	"civitas/pkg/requestcontext"
)

// Resolution paths, used as a metric label.
const (
	pathSweep     = "sweep"
	pathFastTrack = "fast_track"
)

// ResolveExpired resolves one batch of pending proposals whose deadline has
// passed and returns how many this call transitioned. Proposals are resolved
// independently: a failure on one is logged and does not stop the batch.
// Proposals another resolver transitions first are skipped.
func (s *Service) ResolveExpired(ctx context.Context) (_ int, err error) {
	now := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, now)
	ctx, end := s.begin(ctx, "resolve_expired")
	defer func() { end(err) }()
	defer func(start time.Time) { s.metrics.ObserveSweep(time.Since(start)) }(time.Now())

	batch, err := s.proposals.ListExpiredPending(ctx, now, s.batchSize)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expired proposals")
	}

	var resolved atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, p := range batch {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			won, err := s.resolveOne(ctx, p)
			if err != nil {
				s.metrics.IncrementSweepErrors()
				s.logger.ErrorContext(ctx, "failed to resolve proposal",
					"proposal_id", p.ID.String(),
					"community_id", p.CommunityID.String(),
					"error", err,
				)
				return nil
			}
			if won {
				resolved.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(resolved.Load())
	if len(batch) > 0 {
		s.logger.InfoContext(ctx, "resolve expired pass complete",
			"candidates", len(batch),
			"resolved", n,
		)
	}
	return n, ctx.Err()
}

// resolveOne evaluates p's passing condition and attempts the terminal
// transition. A proposal whose rule has left the table is rejected.
func (s *Service) resolveOne(ctx context.Context, p *models.Proposal) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "governance.resolve_one")
	defer span.End()
	span.SetAttributes(proposalAttrs(p)...)

	rule, ok := s.rules.Get(p.LawKind, p.GovernanceKind)
	if !ok {
		notes := "rejected: no rule for " + p.LawKind.String() + " under " + p.GovernanceKind.String()
		return s.finalize(ctx, p, models.StatusRejected, notes, pathSweep, "")
	}
	tally, err := s.tallyFor(ctx, p)
	if err != nil {
		return false, err
	}
	outcome := models.Evaluate(rule.PassingCondition, tally)
	span.SetAttributes(attribute.String("outcome", outcome.Status.String()))
	return s.finalize(ctx, p, outcome.Status, outcome.Notes(tally), pathSweep, "")
}

// FastTrack passes a pending proposal immediately on behalf of a top-rank
// actor, bypassing the tally and the voting window.
func (s *Service) FastTrack(ctx context.Context, proposalID id.ProposalID, actorID id.ActorID) (_ *models.Proposal, err error) {
	ctx, end := s.begin(ctx, "fast_track", attribute.String("proposal_id", proposalID.String()))
	defer func() { end(err) }()

	p, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	rule, err := s.ruleFor(p)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.RequireFastTrack(ctx, rule, p.CommunityID, actorID); err != nil {
		return nil, err
	}
	if !p.IsPending() {
		return nil, dErrors.New(dErrors.CodeNotPending, "proposal is already "+p.Status.String())
	}

	notes := "passed by fast-track: " + actorID.String()
	won, err := s.finalize(ctx, p, models.StatusPassed, notes, pathFastTrack, actorID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, dErrors.New(dErrors.CodeNotPending, "proposal was resolved concurrently")
	}
	s.logAudit(ctx, audit.EventProposalFastTracked,
		"community_id", p.CommunityID.String(),
		"proposal_id", p.ID.String(),
		"actor_id", actorID.String(),
		"law_kind", p.LawKind.String(),
		"decision", string(models.StatusPassed),
	)
	return s.findProposal(ctx, proposalID)
}

// finalize performs the compare-and-swap to a terminal status. Only the
// caller that wins the swap records the outcome and, on a pass, dispatches
// the first execution attempt.
func (s *Service) finalize(ctx context.Context, p *models.Proposal, to models.Status, notes, path string, actorID id.ActorID) (bool, error) {
	now := requestcontext.Now(ctx)
	t := models.Transition{
		ProposalID: p.ID,
		To:         to,
		ResolvedAt: now,
		Notes:      notes,
	}
	won, err := s.proposals.Transition(ctx, t)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to transition proposal")
	}
	if !won {
		s.metrics.IncrementLostTransitions()
		s.logger.DebugContext(ctx, "proposal already resolved by another caller", "proposal_id", p.ID.String())
		return false, nil
	}

	event := audit.EventProposalRejected
	if to == models.StatusPassed {
		event = audit.EventProposalPassed
	}
	s.logAudit(ctx, event,
		"community_id", p.CommunityID.String(),
		"proposal_id", p.ID.String(),
		"actor_id", actorID.String(),
		"law_kind", p.LawKind.String(),
		"decision", to.String(),
		"reason", notes,
	)
	s.metrics.IncrementResolution(to.String(), path)

	if to == models.StatusPassed {
		resolved := *p
		resolved.Status = models.StatusPassed
		resolved.ResolvedAt = &now
		resolved.ResolutionNotes = notes
		resolved.ExecutionState = t.ExecutionState()
		resolved.ExecutionAttempts = t.ExecutionAttempts()
		_ = s.execute(ctx, &resolved, t.ExecutionAttempts())
	}
	return true, nil
}
