package models

import (
	"strings"
	"time"

	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
)

// Choice is a voter's answer.
type Choice string

const (
	ChoiceYes Choice = "yes"
	ChoiceNo  Choice = "no"
)

func ParseChoice(s string) (Choice, error) {
	c := Choice(strings.ToLower(strings.TrimSpace(s)))
	if c != ChoiceYes && c != ChoiceNo {
		return "", dErrors.New(dErrors.CodeInvalidInput, "choice must be yes or no")
	}
	return c, nil
}

// Vote is an append-only record. VoterRank is the voter's rank at cast time;
// later rank changes do not alter how the vote counts.
type Vote struct {
	ID         id.VoteID
	ProposalID id.ProposalID
	VoterID    id.ActorID
	VoterRank  RankTier
	Choice     Choice
	CreatedAt  time.Time
}

// VoteCounts is the raw aggregate a vote store computes.
type VoteCounts struct {
	Yes        int
	No         int
	TopRankYes int
}

// Tally is the read model used for resolution and display.
type Tally struct {
	Yes                int `json:"yes"`
	No                 int `json:"no"`
	Total              int `json:"total"`
	EligibleVoterCount int `json:"eligible_voter_count"`
	TopRankYes         int `json:"top_rank_yes"`
}

func NewTally(c VoteCounts, eligible int) Tally {
	return Tally{
		Yes:                c.Yes,
		No:                 c.No,
		Total:              c.Yes + c.No,
		EligibleVoterCount: eligible,
		TopRankYes:         c.TopRankYes,
	}
}
