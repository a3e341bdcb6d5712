// Package community holds the bundled adapters for the collaborators the
// governance engine consumes: membership ranks, community governance state
// and inter-community conflicts. Production deployments may replace them
// with remote clients behind the same ports.
package community

import (
	"time"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
)

// Community is the governance-relevant slice of a community record.
type Community struct {
	ID             id.CommunityID
	Name           string
	GovernanceKind models.GovernanceKind
	LeaderID       id.ActorID
	SuccessorID    id.ActorID
	UpdatedAt      time.Time
}

// Member is an actor's rank within a community.
type Member struct {
	CommunityID id.CommunityID
	ActorID     id.ActorID
	Rank        models.RankTier
}

// Conflict is an open conflict between two communities, opened by a passed
// proposal.
type Conflict struct {
	ID               string
	InitiatorID      id.CommunityID
	TargetID         id.CommunityID
	SourceProposalID id.ProposalID
	OpenedAt         time.Time
}
