package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
)

func warRule() GovernanceRule {
	return GovernanceRule{
		LawKind:          LawDeclareWar,
		GovernanceKind:   GovernanceMonarchy,
		ProposeRanks:     NewRankSet(TopRank),
		VoteRanks:        NewRankSet(0, 1),
		VotingWindow:     24 * time.Hour,
		CanFastTrack:     true,
		PassingCondition: ConditionSovereignOnly,
		RequiredMetadata: []string{MetaTargetCommunityID},
	}
}

func TestRankSet(t *testing.T) {
	s := NewRankSet(3, 1, 1, 0)
	assert.Equal(t, []RankTier{0, 1, 3}, s.Slice())
	assert.True(t, s.Contains(0))
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(2))
	assert.Equal(t, "{0,1,3}", s.String())
	assert.Equal(t, []int{0, 1, 3}, s.Ints())

	r := RankRange(0, 10)
	assert.Equal(t, 11, r.Len())
	assert.True(t, r.Contains(10))
	assert.True(t, RankRange(5, 1).IsEmpty())

	wide := RankRange(0, 2000000000)
	assert.Equal(t, int(MaxRankTier)+1, wide.Len())
	assert.False(t, wide.Contains(MaxRankTier+1))
	assert.True(t, RankRange(MaxRankTier+1, MaxRankTier+5).IsEmpty())

	var zero RankSet
	assert.False(t, zero.Contains(TopRank))
}

func TestGovernanceRule_Validate(t *testing.T) {
	require.NoError(t, warRule().Validate())

	broken := []func(r *GovernanceRule){
		func(r *GovernanceRule) { r.LawKind = "" },
		func(r *GovernanceRule) { r.GovernanceKind = "" },
		func(r *GovernanceRule) { r.ProposeRanks = RankSet{} },
		func(r *GovernanceRule) { r.VoteRanks = RankSet{} },
		func(r *GovernanceRule) { r.VotingWindow = 0 },
		func(r *GovernanceRule) { r.PassingCondition = "PLURALITY" },
	}
	for i, mutate := range broken {
		r := warRule()
		mutate(&r)
		err := r.Validate()
		assert.Error(t, err, "case %d", i)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "case %d", i)
	}
}

func TestGovernanceRule_MissingMetadata(t *testing.T) {
	r := warRule()
	r.RequiredMetadata = []string{"targetCommunityId", "casusBelli"}

	assert.Equal(t, []string{"casusBelli", "targetCommunityId"}, r.MissingMetadata(nil))
	assert.Equal(t, []string{"casusBelli"}, r.MissingMetadata(Metadata{"targetCommunityId": "X"}))
	assert.Equal(t, []string{"casusBelli"}, r.MissingMetadata(Metadata{"targetCommunityId": "X", "casusBelli": "  "}))
	assert.Empty(t, r.MissingMetadata(Metadata{"targetCommunityId": "X", "casusBelli": "insult", "extra": "ok"}))
}

func TestNewProposal(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pid := id.NewProposalID()
	md := Metadata{MetaTargetCommunityID: "X"}

	p, err := NewProposal(pid, "c1", "king", warRule(), md, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, now.Add(24*time.Hour), p.ExpiresAt)
	assert.Equal(t, GovernanceMonarchy, p.GovernanceKind)
	assert.Equal(t, ExecutionNone, p.ExecutionState)
	assert.Nil(t, p.ResolvedAt)

	md["targetCommunityId"] = "mutated"
	assert.Equal(t, "X", p.Metadata[MetaTargetCommunityID], "metadata must be copied")

	_, err = NewProposal(id.ProposalID{}, "c1", "king", warRule(), md, now)
	assert.Error(t, err)
	_, err = NewProposal(pid, "", "king", warRule(), md, now)
	assert.Error(t, err)
	_, err = NewProposal(pid, "c1", "", warRule(), md, now)
	assert.Error(t, err)
}

func TestProposal_IsExpiredAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, err := NewProposal(id.NewProposalID(), "c1", "king", warRule(), nil, now)
	require.NoError(t, err)

	assert.False(t, p.IsExpiredAt(p.ExpiresAt.Add(-time.Nanosecond)))
	assert.True(t, p.IsExpiredAt(p.ExpiresAt), "deadline is inclusive")
	assert.True(t, p.IsExpiredAt(p.ExpiresAt.Add(time.Minute)))
}

func TestProposal_CloneIsDeep(t *testing.T) {
	resolved := time.Now()
	p := &Proposal{Metadata: Metadata{"k": "v"}, ResolvedAt: &resolved}
	c := p.Clone()
	c.Metadata["k"] = "changed"
	*c.ResolvedAt = resolved.Add(time.Hour)
	assert.Equal(t, "v", p.Metadata["k"])
	assert.Equal(t, resolved, *p.ResolvedAt)
}

func TestParsers(t *testing.T) {
	law, err := ParseLawKind(" declare_war ")
	require.NoError(t, err)
	assert.Equal(t, LawDeclareWar, law)

	for _, bad := range []string{"", "1WAR", "DECLARE-WAR", "war!"} {
		_, err := ParseLawKind(bad)
		assert.Error(t, err, bad)
	}

	gov, err := ParseGovernanceKind("democracy")
	require.NoError(t, err)
	assert.Equal(t, GovernanceDemocracy, gov)

	c, err := ParseChoice("YES")
	require.NoError(t, err)
	assert.Equal(t, ChoiceYes, c)
	_, err = ParseChoice("abstain")
	assert.Error(t, err)

	st, err := ParseStatus("Pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, st)
	_, err = ParseStatus("withdrawn")
	assert.Error(t, err)

	cond, err := ParsePassingCondition("supermajority")
	require.NoError(t, err)
	assert.Equal(t, ConditionSupermajority, cond)
	_, err = ParsePassingCondition("plurality")
	assert.Error(t, err)
}

func TestTransitionExecutionBookkeeping(t *testing.T) {
	pass := Transition{To: StatusPassed}
	assert.Equal(t, ExecutionPending, pass.ExecutionState())
	assert.Equal(t, 1, pass.ExecutionAttempts())

	reject := Transition{To: StatusRejected}
	assert.Equal(t, ExecutionNone, reject.ExecutionState())
	assert.Equal(t, 0, reject.ExecutionAttempts())
}

func TestMetadata_Validate(t *testing.T) {
	require.NoError(t, Metadata{"targetCommunityId": "X"}.Validate())
	require.NoError(t, Metadata(nil).Validate())

	big := Metadata{}
	for i := range MaxMetadataEntries + 1 {
		big[string(rune('a'+i%26))+strings.Repeat("x", i)] = "v"
	}
	assert.True(t, dErrors.HasCode(big.Validate(), dErrors.CodeValidation))

	err := Metadata{"note": strings.Repeat("x", MaxMetadataValueLen+1)}.Validate()
	assert.Equal(t, []string{"note"}, dErrors.FieldsOf(err))

	assert.Error(t, Metadata{" ": "v"}.Validate())
}
