package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeClasses(t *testing.T) {
	tests := []struct {
		code  Code
		class Class
	}{
		{CodeNotMember, ClassAuthorization},
		{CodeInsufficientRank, ClassAuthorization},
		{CodeUnknownLaw, ClassValidation},
		{CodeMissingMetadata, ClassValidation},
		{CodeDuplicatePending, ClassConflict},
		{CodeAlreadyVoted, ClassConflict},
		{CodeNotPending, ClassState},
		{CodeExpired, ClassState},
		{CodeNotFastTrackable, ClassState},
		{CodeExecutionFailed, ClassExecution},
		{Code("something_new"), ClassInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.class, tt.code.Class())
		})
	}
}

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeAlreadyVoted, "already voted")
		assert.True(t, HasCode(err, CodeAlreadyVoted))
		assert.False(t, HasCode(err, CodeNotPending))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("cast vote: %w", New(CodeExpired, "voting closed"))
		assert.True(t, Is(err, CodeExpired))
		assert.Equal(t, CodeExpired, CodeOf(err))
	})

	t.Run("matches nested coded errors", func(t *testing.T) {
		inner := New(CodeNotMember, "not a member")
		outer := Wrap(inner, CodeInternal, "authorization failed")
		assert.True(t, HasCode(outer, CodeNotMember))
		assert.True(t, HasCode(outer, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(outer))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap(base, CodeInternal, "failed to load proposal")
	require.Error(t, err)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "failed to load proposal: connection reset", err.Error())
	assert.Nil(t, Wrap(nil, CodeInternal, "unused"))
}

func TestNewWithFields(t *testing.T) {
	err := NewWithFields(CodeMissingMetadata, "missing required metadata", "successorId", "targetCommunityId")
	assert.Equal(t, "missing required metadata: successorId, targetCommunityId", err.Error())
	assert.Equal(t, []string{"successorId", "targetCommunityId"}, FieldsOf(err))
	assert.Equal(t, ClassValidation, ClassOf(err))
	assert.Nil(t, FieldsOf(errors.New("plain")))
}
