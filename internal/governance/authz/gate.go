// Package authz evaluates governance rules against an actor's rank.
package authz

import (
	"context"
	"errors"
	"strconv"

	"civitas/internal/governance/models"
	"civitas/internal/governance/ports"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/sentinel"
)

// CanPropose reports whether rank may open a proposal under rule.
func CanPropose(rule models.GovernanceRule, rank models.RankTier) bool {
	return rule.ProposeRanks.Contains(rank)
}

// CanVote reports whether rank may vote under rule.
func CanVote(rule models.GovernanceRule, rank models.RankTier) bool {
	return rule.VoteRanks.Contains(rank)
}

// CanFastTrack is true only for the top tier on a fast-trackable rule.
func CanFastTrack(rule models.GovernanceRule, rank models.RankTier) bool {
	return rule.CanFastTrack && rank.IsTop()
}

// Gate combines the pure checks with a live rank lookup and returns coded
// errors callers can surface directly. It performs no writes.
type Gate struct {
	members ports.MembershipProvider
}

func NewGate(members ports.MembershipProvider) *Gate {
	return &Gate{members: members}
}

// RankOf resolves actor's rank, mapping a missing membership to NotMember.
func (g *Gate) RankOf(ctx context.Context, community id.CommunityID, actor id.ActorID) (models.RankTier, error) {
	rank, err := g.members.Rank(ctx, community, actor)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotMember, "actor is not a member of the community")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve member rank")
	}
	return rank, nil
}

func (g *Gate) RequirePropose(ctx context.Context, rule models.GovernanceRule, community id.CommunityID, actor id.ActorID) (models.RankTier, error) {
	rank, err := g.RankOf(ctx, community, actor)
	if err != nil {
		return 0, err
	}
	if !CanPropose(rule, rank) {
		return rank, dErrors.New(dErrors.CodeInsufficientRank, "rank "+rankString(rank)+" may not propose "+string(rule.LawKind))
	}
	return rank, nil
}

func (g *Gate) RequireVote(ctx context.Context, rule models.GovernanceRule, community id.CommunityID, actor id.ActorID) (models.RankTier, error) {
	rank, err := g.RankOf(ctx, community, actor)
	if err != nil {
		return 0, err
	}
	if !CanVote(rule, rank) {
		return rank, dErrors.New(dErrors.CodeInsufficientRank, "rank "+rankString(rank)+" may not vote on "+string(rule.LawKind))
	}
	return rank, nil
}

// RequireFastTrack rejects a non fast-trackable rule before looking up the
// actor, so the answer is NotFastTrackable for every rank.
func (g *Gate) RequireFastTrack(ctx context.Context, rule models.GovernanceRule, community id.CommunityID, actor id.ActorID) (models.RankTier, error) {
	if !rule.CanFastTrack {
		return 0, dErrors.New(dErrors.CodeNotFastTrackable, string(rule.LawKind)+" cannot be fast-tracked under "+string(rule.GovernanceKind))
	}
	rank, err := g.RankOf(ctx, community, actor)
	if err != nil {
		return 0, err
	}
	if !CanFastTrack(rule, rank) {
		return rank, dErrors.New(dErrors.CodeInsufficientRank, "only the top rank may fast-track")
	}
	return rank, nil
}

func rankString(r models.RankTier) string {
	return strconv.Itoa(int(r))
}
