// Package ports defines the external collaborators the governance engine
// consumes. Adapters live in internal/community; tests use the gomock doubles
// in ports/mocks.
package ports

import (
	"context"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// MembershipProvider resolves an actor's rank within a community.
type MembershipProvider interface {
	// Rank returns sentinel.ErrNotFound when actor is not a member.
	Rank(ctx context.Context, community id.CommunityID, actor id.ActorID) (models.RankTier, error)

	// CountEligible counts members whose rank is in ranks.
	CountEligible(ctx context.Context, community id.CommunityID, ranks []models.RankTier) (int, error)
}

// CommunityService reads and writes community-level governance state. Writes
// carry the proposal id so implementations can ignore a repeated effect.
type CommunityService interface {
	// GovernanceKind returns sentinel.ErrNotFound for an unknown community.
	GovernanceKind(ctx context.Context, community id.CommunityID) (models.GovernanceKind, error)
	SetGovernanceKind(ctx context.Context, community id.CommunityID, kind models.GovernanceKind, proposalID id.ProposalID) error
	SetSuccessor(ctx context.Context, community id.CommunityID, successor id.ActorID, proposalID id.ProposalID) error
}

// ConflictService opens conflicts between communities. A second call with the
// same proposal id returns the conflict opened by the first.
type ConflictService interface {
	OpenConflict(ctx context.Context, initiator, target id.CommunityID, proposalID id.ProposalID) (string, error)
}

// AuditPublisher emits audit events for governance actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
