package models

import (
	"slices"
	"strings"
	"time"

	dErrors "civitas/pkg/domain-errors"
)

// PassingCondition decides whether the votes collected on a proposal pass it.
type PassingCondition string

const (
	// ConditionSovereignOnly passes iff a top-rank member voted Yes. Every
	// other vote is advisory.
	ConditionSovereignOnly PassingCondition = "SOVEREIGN_ONLY"
	// ConditionMajority passes iff yes > no.
	ConditionMajority PassingCondition = "MAJORITY"
	// ConditionSupermajority passes iff yes >= ceil(2*total/3).
	ConditionSupermajority PassingCondition = "SUPERMAJORITY"
	// ConditionUnanimous passes iff no == 0 and every eligible voter voted Yes.
	ConditionUnanimous PassingCondition = "UNANIMOUS"
)

var validConditions = map[PassingCondition]bool{
	ConditionSovereignOnly: true,
	ConditionMajority:      true,
	ConditionSupermajority: true,
	ConditionUnanimous:     true,
}

// ParsePassingCondition accepts the condition name in any case.
func ParsePassingCondition(s string) (PassingCondition, error) {
	c := PassingCondition(strings.ToUpper(strings.TrimSpace(s)))
	if !validConditions[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown passing condition: "+s)
	}
	return c, nil
}

func (c PassingCondition) IsValid() bool { return validConditions[c] }

// GovernanceRule says who may propose and vote on a law under a governance
// kind, how long voting lasts and how the outcome is decided.
// Rules are values; once loaded into a registry they are never mutated.
type GovernanceRule struct {
	LawKind          LawKind
	GovernanceKind   GovernanceKind
	ProposeRanks     RankSet
	VoteRanks        RankSet
	VotingWindow     time.Duration
	CanFastTrack     bool
	PassingCondition PassingCondition
	RequiredMetadata []string
}

// Validate checks the rule's internal invariants.
func (r GovernanceRule) Validate() error {
	switch {
	case r.LawKind == "":
		return dErrors.New(dErrors.CodeValidation, "rule law kind is required")
	case r.GovernanceKind == "":
		return dErrors.New(dErrors.CodeValidation, "rule governance kind is required")
	case r.ProposeRanks.IsEmpty():
		return dErrors.New(dErrors.CodeValidation, "rule "+r.key()+" has no propose ranks")
	case r.VoteRanks.IsEmpty():
		return dErrors.New(dErrors.CodeValidation, "rule "+r.key()+" has no vote ranks")
	case r.VotingWindow <= 0:
		return dErrors.New(dErrors.CodeValidation, "rule "+r.key()+" voting window must be positive")
	case !r.PassingCondition.IsValid():
		return dErrors.New(dErrors.CodeValidation, "rule "+r.key()+" has unknown passing condition")
	}
	return nil
}

// MissingMetadata returns the required fields absent (or blank) in md,
// sorted for stable error messages.
func (r GovernanceRule) MissingMetadata(md Metadata) []string {
	var missing []string
	for _, field := range r.RequiredMetadata {
		if strings.TrimSpace(md[field]) == "" {
			missing = append(missing, field)
		}
	}
	slices.Sort(missing)
	return missing
}

func (r GovernanceRule) key() string {
	return string(r.GovernanceKind) + "/" + string(r.LawKind)
}
