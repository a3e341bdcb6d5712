package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "civitas/pkg/domain-errors"
)

// ProposalID identifies a governance proposal. Proposals are owned by this
// service, so their IDs are UUIDs minted here.
type ProposalID uuid.UUID

// VoteID identifies a single cast vote.
type VoteID uuid.UUID

// CommunityID identifies a community. Communities live in an external
// service, so the ID is an opaque string validated only for shape.
type CommunityID string

// ActorID identifies a member acting within a community (proposer, voter,
// successor). Opaque like CommunityID.
type ActorID string

// maxExternalIDLen bounds opaque identifiers received from callers.
const maxExternalIDLen = 128

// uuidTextLen is the canonical 8-4-4-4-12 form. Other encodings accepted by
// uuid.Parse (braces, urn prefix, bare hex) are rejected at the boundary.
const uuidTextLen = 36

func NewProposalID() ProposalID { return ProposalID(uuid.New()) }

func NewVoteID() VoteID { return VoteID(uuid.New()) }

// ParseProposalID validates a canonical, non-nil UUID.
func ParseProposalID(s string) (ProposalID, error) {
	u, err := parseUUID(s, "proposal ID")
	if err != nil {
		return ProposalID{}, err
	}
	return ProposalID(u), nil
}

// ParseVoteID validates a canonical, non-nil UUID.
func ParseVoteID(s string) (VoteID, error) {
	u, err := parseUUID(s, "vote ID")
	if err != nil {
		return VoteID{}, err
	}
	return VoteID(u), nil
}

func (p ProposalID) String() string { return uuid.UUID(p).String() }
func (p ProposalID) IsNil() bool    { return uuid.UUID(p) == uuid.Nil }
func (v VoteID) String() string     { return uuid.UUID(v).String() }
func (v VoteID) IsNil() bool        { return uuid.UUID(v) == uuid.Nil }

// ParseCommunityID trims and validates an external community identifier.
func ParseCommunityID(s string) (CommunityID, error) {
	v, err := parseExternalID(s, "community ID")
	if err != nil {
		return "", err
	}
	return CommunityID(v), nil
}

// ParseActorID trims and validates an external actor identifier.
func ParseActorID(s string) (ActorID, error) {
	v, err := parseExternalID(s, "actor ID")
	if err != nil {
		return "", err
	}
	return ActorID(v), nil
}

func (c CommunityID) String() string { return string(c) }
func (c CommunityID) IsNil() bool    { return c == "" }
func (a ActorID) String() string     { return string(a) }
func (a ActorID) IsNil() bool        { return a == "" }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) != uuidTextLen {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func parseExternalID(s, label string) (string, error) {
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" must be valid UTF-8")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxExternalIDLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" is too long")
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, label+" contains invalid characters")
		}
	}
	return s, nil
}
