package executor

import (
	"context"
	"slices"

	"civitas/internal/governance/models"
	"civitas/internal/governance/ports"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
)

// DeclareWar opens a conflict against metadata.targetCommunityId.
type DeclareWar struct {
	conflicts ports.ConflictService
}

func NewDeclareWar(conflicts ports.ConflictService) *DeclareWar {
	return &DeclareWar{conflicts: conflicts}
}

func (e *DeclareWar) LawKind() models.LawKind { return models.LawDeclareWar }

func (e *DeclareWar) Execute(ctx context.Context, p *models.Proposal) (Result, error) {
	target, err := id.ParseCommunityID(p.Metadata[models.MetaTargetCommunityID])
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeExecutionFailed, "invalid targetCommunityId")
	}
	if target == p.CommunityID {
		return Result{}, dErrors.New(dErrors.CodeExecutionFailed, "a community cannot declare war on itself")
	}
	conflictID, err := e.conflicts.OpenConflict(ctx, p.CommunityID, target, p.ID)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeExecutionFailed, "open conflict")
	}
	return Result{Detail: "conflict " + conflictID + " opened against " + target.String()}, nil
}

// NameSuccessor sets the community's successor to metadata.successorId.
type NameSuccessor struct {
	community ports.CommunityService
}

func NewNameSuccessor(community ports.CommunityService) *NameSuccessor {
	return &NameSuccessor{community: community}
}

func (e *NameSuccessor) LawKind() models.LawKind { return models.LawNameSuccessor }

func (e *NameSuccessor) Execute(ctx context.Context, p *models.Proposal) (Result, error) {
	successor, err := id.ParseActorID(p.Metadata[models.MetaSuccessorID])
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeExecutionFailed, "invalid successorId")
	}
	if err := e.community.SetSuccessor(ctx, p.CommunityID, successor, p.ID); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeExecutionFailed, "set successor")
	}
	return Result{Detail: "successor set to " + successor.String()}, nil
}

// ChangeGovernment switches the community to metadata.governanceKind. When
// known kinds are given, any other kind is refused so a community cannot be
// moved to a structure with no rules.
type ChangeGovernment struct {
	community ports.CommunityService
	known     []models.GovernanceKind
}

func NewChangeGovernment(community ports.CommunityService, known ...models.GovernanceKind) *ChangeGovernment {
	return &ChangeGovernment{community: community, known: slices.Clone(known)}
}

func (e *ChangeGovernment) LawKind() models.LawKind { return models.LawChangeGovernment }

func (e *ChangeGovernment) Execute(ctx context.Context, p *models.Proposal) (Result, error) {
	kind, err := models.ParseGovernanceKind(p.Metadata[models.MetaGovernanceKind])
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeExecutionFailed, "invalid governanceKind")
	}
	if len(e.known) > 0 && !slices.Contains(e.known, kind) {
		return Result{}, dErrors.New(dErrors.CodeExecutionFailed, "no rules for governance kind "+kind.String())
	}
	if err := e.community.SetGovernanceKind(ctx, p.CommunityID, kind, p.ID); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeExecutionFailed, "set governance kind")
	}
	return Result{Detail: "governance changed to " + kind.String()}, nil
}

// Default assembles the bundled executors.
func Default(community ports.CommunityService, conflicts ports.ConflictService, known ...models.GovernanceKind) (*Dispatcher, error) {
	return NewDispatcher(
		NewDeclareWar(conflicts),
		NewNameSuccessor(community),
		NewChangeGovernment(community, known...),
	)
}
