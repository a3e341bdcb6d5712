package models

import (
	"maps"
	"strings"
	"time"

	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
)

// Status is the lifecycle state of a proposal.
// Transitions are monotonic: pending -> passed | rejected, never reversed.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPassed   Status = "passed"
	StatusRejected Status = "rejected"
)

var validStatuses = map[Status]bool{
	StatusPending:  true,
	StatusPassed:   true,
	StatusRejected: true,
}

// ParseStatus validates a status filter from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !validStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid proposal status: "+s)
	}
	return st, nil
}

func (s Status) IsTerminal() bool { return s == StatusPassed || s == StatusRejected }
func (s Status) String() string   { return string(s) }

// ExecutionState tracks the side effect of a passed proposal. It is
// independent of Status: a failed execution never reverts a passed vote.
type ExecutionState string

const (
	ExecutionNone      ExecutionState = "none"
	ExecutionPending   ExecutionState = "pending"
	ExecutionSucceeded ExecutionState = "succeeded"
	ExecutionFailed    ExecutionState = "failed"
)

// Metadata is the law-specific payload attached to a proposal.
type Metadata map[string]string

// Metadata bounds applied at creation.
const (
	MaxMetadataEntries  = 32
	MaxMetadataKeyLen   = 64
	MaxMetadataValueLen = 1024
)

// Validate bounds the payload size. Field presence is checked against the
// rule separately.
func (m Metadata) Validate() error {
	if len(m) > MaxMetadataEntries {
		return dErrors.New(dErrors.CodeValidation, "too many metadata entries")
	}
	for k, v := range m {
		if strings.TrimSpace(k) == "" || len(k) > MaxMetadataKeyLen {
			return dErrors.NewWithFields(dErrors.CodeValidation, "invalid metadata key", k)
		}
		if len(v) > MaxMetadataValueLen {
			return dErrors.NewWithFields(dErrors.CodeValidation, "metadata value too long", k)
		}
	}
	return nil
}

func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	return maps.Clone(m)
}

// Proposal is a pending or resolved governance action.
type Proposal struct {
	ID             id.ProposalID
	CommunityID    id.CommunityID
	ProposerID     id.ActorID
	LawKind        LawKind
	GovernanceKind GovernanceKind
	Status         Status
	Metadata       Metadata
	CreatedAt      time.Time
	// ExpiresAt is fixed at creation and never mutated.
	ExpiresAt         time.Time
	ResolvedAt        *time.Time
	ResolutionNotes   string
	ExecutionState    ExecutionState
	ExecutionAttempts int
	// ExecutionClaimedAt is when the current dispatch attempt was claimed.
	// A pending attempt older than the stale threshold is presumed crashed.
	ExecutionClaimedAt *time.Time
}

// NewProposal builds a pending proposal under rule. The governance kind is
// captured so the proposal is always resolved by the rule it was opened under.
func NewProposal(
	proposalID id.ProposalID,
	communityID id.CommunityID,
	proposerID id.ActorID,
	rule GovernanceRule,
	metadata Metadata,
	now time.Time,
) (*Proposal, error) {
	if proposalID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proposal ID is required")
	}
	if communityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "community ID is required")
	}
	if proposerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proposer ID is required")
	}
	if rule.VotingWindow <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "voting window must be positive")
	}
	return &Proposal{
		ID:             proposalID,
		CommunityID:    communityID,
		ProposerID:     proposerID,
		LawKind:        rule.LawKind,
		GovernanceKind: rule.GovernanceKind,
		Status:         StatusPending,
		Metadata:       metadata.Clone(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(rule.VotingWindow),
		ExecutionState: ExecutionNone,
	}, nil
}

func (p *Proposal) IsPending() bool { return p.Status == StatusPending }

// IsExpiredAt reports whether the voting deadline has passed at now.
// The deadline is inclusive: a vote at exactly ExpiresAt is too late.
func (p *Proposal) IsExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Clone returns a deep copy safe to hand across store boundaries.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	c := *p
	c.Metadata = p.Metadata.Clone()
	if p.ResolvedAt != nil {
		t := *p.ResolvedAt
		c.ResolvedAt = &t
	}
	if p.ExecutionClaimedAt != nil {
		t := *p.ExecutionClaimedAt
		c.ExecutionClaimedAt = &t
	}
	return &c
}

// Transition is a compare-and-swap request moving a pending proposal to a
// terminal status. Stores apply it only if the proposal is still pending.
type Transition struct {
	ProposalID id.ProposalID
	To         Status
	ResolvedAt time.Time
	Notes      string
}

// ExecutionState is the execution state a proposal enters with the transition.
// A pass opens attempt 1, owned by whoever won the transition.
func (t Transition) ExecutionState() ExecutionState {
	if t.To == StatusPassed {
		return ExecutionPending
	}
	return ExecutionNone
}

// ExecutionAttempts is the attempt counter set by the transition.
func (t Transition) ExecutionAttempts() int {
	if t.To == StatusPassed {
		return 1
	}
	return 0
}

// AppendNote joins a new resolution note onto existing notes.
func AppendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

// ExecutionRecord reports the result of one dispatch attempt. Stores apply it
// only while the proposal's attempt counter still equals Attempt, so a stale
// attempt cannot overwrite a newer one.
type ExecutionRecord struct {
	ProposalID id.ProposalID
	Attempt    int
	State      ExecutionState
	Note       string
}
