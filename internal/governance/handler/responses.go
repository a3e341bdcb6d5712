package handler

import (
	"time"

	"civitas/internal/governance/models"
	"civitas/internal/governance/service"
)

type ProposalResponse struct {
	ID                string            `json:"id"`
	CommunityID       string            `json:"community_id"`
	ProposerID        string            `json:"proposer_id"`
	LawKind           string            `json:"law_kind"`
	GovernanceKind    string            `json:"governance_kind"`
	Status            string            `json:"status"`
	Metadata          map[string]string `json:"metadata"`
	CreatedAt         time.Time         `json:"created_at"`
	ExpiresAt         time.Time         `json:"expires_at"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty"`
	ResolutionNotes   string            `json:"resolution_notes,omitempty"`
	ExecutionState    string            `json:"execution_state"`
	ExecutionAttempts int               `json:"execution_attempts"`
	Tally             *models.Tally     `json:"tally,omitempty"`
}

type VoteResponse struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id"`
	VoterID    string    `json:"voter_id"`
	VoterRank  int       `json:"voter_rank"`
	Choice     string    `json:"choice"`
	CreatedAt  time.Time `json:"created_at"`
}

type LawResponse struct {
	LawKind          string   `json:"law_kind"`
	GovernanceKind   string   `json:"governance_kind"`
	ProposeRanks     []int    `json:"propose_ranks"`
	VoteRanks        []int    `json:"vote_ranks"`
	VotingWindow     string   `json:"voting_window"`
	CanFastTrack     bool     `json:"can_fast_track"`
	PassingCondition string   `json:"passing_condition"`
	RequiredMetadata []string `json:"required_metadata"`
}

type ProposalListResponse struct {
	Proposals []*ProposalResponse `json:"proposals"`
}

type VoteListResponse struct {
	Votes []*VoteResponse `json:"votes"`
}

type LawListResponse struct {
	Laws []*LawResponse `json:"laws"`
}

type ResolveResponse struct {
	Resolved int `json:"resolved"`
}

type RedispatchResponse struct {
	Attempts int `json:"attempts"`
}

func FromProposal(p *models.Proposal) *ProposalResponse {
	md := p.Metadata
	if md == nil {
		md = models.Metadata{}
	}
	return &ProposalResponse{
		ID:                p.ID.String(),
		CommunityID:       p.CommunityID.String(),
		ProposerID:        p.ProposerID.String(),
		LawKind:           p.LawKind.String(),
		GovernanceKind:    p.GovernanceKind.String(),
		Status:            p.Status.String(),
		Metadata:          md,
		CreatedAt:         p.CreatedAt,
		ExpiresAt:         p.ExpiresAt,
		ResolvedAt:        p.ResolvedAt,
		ResolutionNotes:   p.ResolutionNotes,
		ExecutionState:    string(p.ExecutionState),
		ExecutionAttempts: p.ExecutionAttempts,
	}
}

func FromView(v service.ProposalView) *ProposalResponse {
	resp := FromProposal(v.Proposal)
	tally := v.Tally
	resp.Tally = &tally
	return resp
}

func FromVote(v *models.Vote) *VoteResponse {
	return &VoteResponse{
		ID:         v.ID.String(),
		ProposalID: v.ProposalID.String(),
		VoterID:    v.VoterID.String(),
		VoterRank:  int(v.VoterRank),
		Choice:     string(v.Choice),
		CreatedAt:  v.CreatedAt,
	}
}

func FromLaw(l service.ProposableLaw) *LawResponse {
	required := l.Rule.RequiredMetadata
	if required == nil {
		required = []string{}
	}
	return &LawResponse{
		LawKind:          l.LawKind.String(),
		GovernanceKind:   l.Rule.GovernanceKind.String(),
		ProposeRanks:     l.Rule.ProposeRanks.Ints(),
		VoteRanks:        l.Rule.VoteRanks.Ints(),
		VotingWindow:     l.Rule.VotingWindow.String(),
		CanFastTrack:     l.Rule.CanFastTrack,
		PassingCondition: string(l.Rule.PassingCondition),
		RequiredMetadata: required,
	}
}
