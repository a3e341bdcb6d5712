package service

import (
	"context"
	"strconv"

	"civitas/internal/governance/models"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/audit"
	"civitas/pkg/requestcontext"
)

// execute runs one dispatch attempt and records its result guarded by the
// attempt number. A failure never changes the proposal's status. The attempt
// is detached from the caller's cancellation and bounded by dispatchTimeout.
func (s *Service) execute(ctx context.Context, p *models.Proposal, attempt int) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dispatchTimeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "governance.dispatch")
	defer span.End()
	span.SetAttributes(proposalAttrs(p)...)

	rec := models.ExecutionRecord{ProposalID: p.ID, Attempt: attempt}
	res, err := s.dispatcher.Dispatch(ctx, p)
	if err != nil {
		span.RecordError(err)
		rec.State = models.ExecutionFailed
		rec.Note = "execution attempt " + strconv.Itoa(attempt) + " failed: " + err.Error()
		s.metrics.IncrementExecution(p.LawKind.String(), string(models.ExecutionFailed))
		s.logAudit(ctx, audit.EventLawExecutionFailed,
			"community_id", p.CommunityID.String(),
			"proposal_id", p.ID.String(),
			"law_kind", p.LawKind.String(),
			"decision", string(models.ExecutionFailed),
			"reason", err.Error(),
		)
	} else {
		rec.State = models.ExecutionSucceeded
		rec.Note = "executed: " + res.Detail
		s.metrics.IncrementExecution(p.LawKind.String(), string(models.ExecutionSucceeded))
		s.logAudit(ctx, audit.EventLawExecuted,
			"community_id", p.CommunityID.String(),
			"proposal_id", p.ID.String(),
			"law_kind", p.LawKind.String(),
			"decision", string(models.ExecutionSucceeded),
			"reason", res.Detail,
		)
	}

	recorded, recErr := s.proposals.RecordExecution(ctx, rec)
	switch {
	case recErr != nil:
		s.logger.ErrorContext(ctx, "failed to record execution result",
			"proposal_id", p.ID.String(),
			"attempt", attempt,
			"state", string(rec.State),
			"error", recErr,
		)
	case !recorded:
		s.logger.WarnContext(ctx, "execution result superseded by a newer attempt",
			"proposal_id", p.ID.String(),
			"attempt", attempt,
		)
	}
	return err
}

// Redispatch retries executions that failed or whose attempt went stale, up
// to the attempt ceiling, and returns how many attempts this call made. Each
// retry is claimed with a compare-and-swap on the attempt counter, so
// concurrent redispatchers never run the same attempt twice.
func (s *Service) Redispatch(ctx context.Context) (_ int, err error) {
	now := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, now)
	ctx, end := s.begin(ctx, "redispatch")
	defer func() { end(err) }()

	batch, err := s.proposals.ListRedispatchable(ctx, now.Add(-s.staleAfter), s.maxAttempts, s.batchSize)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list redispatchable proposals")
	}

	attempts := 0
	for _, p := range batch {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return attempts, err
			}
		} else if ctx.Err() != nil {
			return attempts, ctx.Err()
		}
		won, err := s.proposals.ClaimExecution(ctx, p.ID, p.ExecutionAttempts, now)
		if err != nil {
			s.metrics.IncrementSweepErrors()
			s.logger.ErrorContext(ctx, "failed to claim execution", "proposal_id", p.ID.String(), "error", err)
			continue
		}
		if !won {
			continue
		}
		attempts++
		if err := s.execute(ctx, p, p.ExecutionAttempts+1); err != nil {
			s.logger.WarnContext(ctx, "redispatch attempt failed",
				"proposal_id", p.ID.String(),
				"attempt", p.ExecutionAttempts+1,
				"error", err,
			)
		}
	}
	return attempts, nil
}
