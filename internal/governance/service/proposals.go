package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/audit"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/requestcontext"
)

// tallyConcurrency bounds parallel tally reads when listing proposals.
const tallyConcurrency = 8

// Propose opens a pending proposal for law in community on behalf of actor.
// A failed call creates no record.
func (s *Service) Propose(ctx context.Context, communityID id.CommunityID, actorID id.ActorID, law models.LawKind, metadata models.Metadata) (_ *models.Proposal, err error) {
	ctx, end := s.begin(ctx, "propose",
		attribute.String("community_id", communityID.String()),
		attribute.String("law_kind", law.String()),
	)
	defer func() { end(err) }()

	gov, err := s.governanceKind(ctx, communityID)
	if err != nil {
		return nil, err
	}
	rule, ok := s.rules.Get(law, gov)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnknownLaw, law.String()+" is not a law under "+gov.String())
	}
	if _, err := s.gate.RequirePropose(ctx, rule, communityID, actorID); err != nil {
		return nil, err
	}
	if missing := rule.MissingMetadata(metadata); len(missing) > 0 {
		return nil, dErrors.NewWithFields(dErrors.CodeMissingMetadata, "missing required metadata", missing...)
	}
	if err := metadata.Validate(); err != nil {
		return nil, err
	}

	p, err := models.NewProposal(id.NewProposalID(), communityID, actorID, rule, metadata, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.proposals.CreatePending(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicatePending, "a "+law.String()+" proposal is already pending in this community")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
	}

	s.logAudit(ctx, audit.EventProposalCreated,
		"community_id", communityID.String(),
		"proposal_id", p.ID.String(),
		"actor_id", actorID.String(),
		"law_kind", law.String(),
		"decision", string(models.StatusPending),
	)
	s.metrics.IncrementProposalsCreated(law.String())
	return p, nil
}

// GetProposal returns a proposal with its current tally.
func (s *Service) GetProposal(ctx context.Context, proposalID id.ProposalID) (_ *ProposalView, err error) {
	ctx, end := s.begin(ctx, "get_proposal", attribute.String("proposal_id", proposalID.String()))
	defer func() { end(err) }()

	p, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	tally, err := s.tallyFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return &ProposalView{Proposal: p, Tally: tally}, nil
}

// ListProposals returns the community's proposals, newest first, each with
// its tally. An empty status filter returns every status.
func (s *Service) ListProposals(ctx context.Context, communityID id.CommunityID, statuses ...models.Status) (_ []ProposalView, err error) {
	ctx, end := s.begin(ctx, "list_proposals", attribute.String("community_id", communityID.String()))
	defer func() { end(err) }()

	proposals, err := s.proposals.ListByCommunity(ctx, communityID, statuses)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proposals")
	}

	views := make([]ProposalView, len(proposals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tallyConcurrency)
	for i, p := range proposals {
		g.Go(func() error {
			tally, err := s.tallyFor(gctx, p)
			if err != nil {
				return err
			}
			views[i] = ProposalView{Proposal: p, Tally: tally}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// ListProposableLaws returns the laws actor may currently propose in the
// community, using the actor's live rank.
func (s *Service) ListProposableLaws(ctx context.Context, communityID id.CommunityID, actorID id.ActorID) (_ []ProposableLaw, err error) {
	ctx, end := s.begin(ctx, "list_proposable_laws", attribute.String("community_id", communityID.String()))
	defer func() { end(err) }()

	gov, err := s.governanceKind(ctx, communityID)
	if err != nil {
		return nil, err
	}
	rank, err := s.gate.RankOf(ctx, communityID, actorID)
	if err != nil {
		return nil, err
	}
	laws := s.rules.ListProposable(gov, rank)
	out := make([]ProposableLaw, 0, len(laws))
	for _, law := range laws {
		rule, ok := s.rules.Get(law, gov)
		if !ok {
			continue
		}
		out = append(out, ProposableLaw{LawKind: law, Rule: rule})
	}
	return out, nil
}

func (s *Service) governanceKind(ctx context.Context, communityID id.CommunityID) (models.GovernanceKind, error) {
	gov, err := s.community.GovernanceKind(ctx, communityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "community not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load community")
	}
	return gov, nil
}

func (s *Service) findProposal(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	p, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "proposal not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return p, nil
}
