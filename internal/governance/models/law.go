package models

import (
	"strings"

	dErrors "civitas/pkg/domain-errors"
)

// LawKind names a kind of collective action a community can authorize.
// The set is open: any kind present in the rule table is valid, and new kinds
// are added by table entry rather than by code.
type LawKind string

// Law kinds shipped with the default rule table and executor set.
const (
	LawDeclareWar       LawKind = "DECLARE_WAR"
	LawNameSuccessor    LawKind = "NAME_SUCCESSOR"
	LawChangeGovernment LawKind = "CHANGE_GOVERNMENT"
)

// GovernanceKind is the ruling structure of a community. It selects which
// rule applies to a law.
type GovernanceKind string

const (
	GovernanceMonarchy  GovernanceKind = "MONARCHY"
	GovernanceDemocracy GovernanceKind = "DEMOCRACY"
	GovernanceCouncil   GovernanceKind = "COUNCIL"
)

// Metadata keys read by the bundled executors.
const (
	MetaTargetCommunityID = "targetCommunityId"
	MetaSuccessorID       = "successorId"
	MetaGovernanceKind    = "governanceKind"
)

// ParseLawKind normalizes external input to an upper-snake identifier.
// It does not check the rule table; that is the registry's job.
func ParseLawKind(s string) (LawKind, error) {
	v, ok := parseIdentifier(s)
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid law kind")
	}
	return LawKind(v), nil
}

// ParseGovernanceKind normalizes external input to an upper-snake identifier.
func ParseGovernanceKind(s string) (GovernanceKind, error) {
	v, ok := parseIdentifier(s)
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid governance kind")
	}
	return GovernanceKind(v), nil
}

func (l LawKind) String() string        { return string(l) }
func (g GovernanceKind) String() string { return string(g) }

// parseIdentifier accepts [A-Za-z][A-Za-z0-9_]* up to 64 bytes and upper-cases it.
func parseIdentifier(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || len(s) > 64 {
		return "", false
	}
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case (r >= '0' && r <= '9') || r == '_':
			if i == 0 {
				return "", false
			}
		default:
			return "", false
		}
	}
	return s, true
}
