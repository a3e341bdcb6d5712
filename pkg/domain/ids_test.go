package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "civitas/pkg/domain-errors"
)

// TestParseProposalID_Invariants validates the parsing invariant:
// "proposal IDs must be valid, canonical, non-nil UUIDs"
func TestParseProposalID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseProposalID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseProposalID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseProposalID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-canonical encodings", func(t *testing.T) {
		u := uuid.New()
		for _, s := range []string{
			"{" + u.String() + "}",
			"urn:uuid:" + u.String(),
			strings.ReplaceAll(u.String(), "-", ""),
		} {
			_, err := ParseProposalID(s)
			assert.Error(t, err, s)
		}
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		pid, err := ParseProposalID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, ProposalID(valid), pid)
		assert.Equal(t, valid.String(), pid.String())
		assert.False(t, pid.IsNil())
	})
}

// TestParseExternalID_SecurityInvariants validates rules applied to opaque
// identifiers received from callers.
func TestParseExternalID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "community-42", "community-42", false},
		{"trims whitespace", "  X  ", "X", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"null byte", "abc\x00def", "", true},
		{"zero-width space", "abc\u200Bdef", "", true},
		{"oversized", strings.Repeat("a", 129), "", true},
		{"max length", strings.Repeat("a", 128), strings.Repeat("a", 128), false},
		{"invalid utf8", string([]byte{0xff, 0xfe}), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cid, err := ParseCommunityID(tt.input)
			aid, aerr := ParseActorID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Error(t, aerr)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			require.NoError(t, aerr)
			assert.Equal(t, CommunityID(tt.want), cid)
			assert.Equal(t, ActorID(tt.want), aid)
		})
	}
}

// TestTypeDistinction verifies the compiler keeps ID types apart.
func TestTypeDistinction(t *testing.T) {
	proposalID := NewProposalID()
	voteID := NewVoteID()

	// var _ ProposalID = voteID // compile error

	assert.NotEqual(t, uuid.UUID(proposalID), uuid.UUID(voteID))
}
