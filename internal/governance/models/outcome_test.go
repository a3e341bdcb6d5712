package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		cond PassingCondition
		t    Tally
		want Status
	}{
		{"majority 6-4 passes", ConditionMajority, Tally{Yes: 6, No: 4, Total: 10}, StatusPassed},
		{"majority tie rejects", ConditionMajority, Tally{Yes: 5, No: 5, Total: 10}, StatusRejected},
		{"supermajority 6-4 rejects at threshold 7", ConditionSupermajority, Tally{Yes: 6, No: 4, Total: 10}, StatusRejected},
		{"supermajority 7-3 passes", ConditionSupermajority, Tally{Yes: 7, No: 3, Total: 10}, StatusPassed},
		{"supermajority 2-1 passes", ConditionSupermajority, Tally{Yes: 2, No: 1, Total: 3}, StatusPassed},
		{"sovereign yes passes alone", ConditionSovereignOnly, Tally{Yes: 1, No: 0, Total: 1, TopRankYes: 1}, StatusPassed},
		{"sovereign yes outweighs advisory no votes", ConditionSovereignOnly, Tally{Yes: 1, No: 9, Total: 10, TopRankYes: 1}, StatusPassed},
		{"advisory yes without sovereign rejects", ConditionSovereignOnly, Tally{Yes: 9, No: 0, Total: 9}, StatusRejected},
		{"unanimous all eligible yes passes", ConditionUnanimous, Tally{Yes: 3, Total: 3, EligibleVoterCount: 3}, StatusPassed},
		{"unanimous missing voter rejects", ConditionUnanimous, Tally{Yes: 2, Total: 2, EligibleVoterCount: 3}, StatusRejected},
		{"unanimous single no rejects", ConditionUnanimous, Tally{Yes: 2, No: 1, Total: 3, EligibleVoterCount: 3}, StatusRejected},
		{"majority zero votes rejects", ConditionMajority, Tally{}, StatusRejected},
		{"supermajority zero votes rejects", ConditionSupermajority, Tally{}, StatusRejected},
		{"unanimous zero votes rejects even with zero eligible", ConditionUnanimous, Tally{}, StatusRejected},
		{"unknown condition rejects", PassingCondition("COIN_FLIP"), Tally{Yes: 1, Total: 1}, StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Evaluate(tt.cond, tt.t)
			assert.Equal(t, tt.want, out.Status)
			assert.Equal(t, tt.cond, out.Condition)
			assert.NotEmpty(t, out.Reason)
		})
	}
}

func TestSupermajorityThreshold(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 2, 3: 2, 4: 3, 9: 6, 10: 7, 11: 8}
	for total, want := range cases {
		assert.Equal(t, want, SupermajorityThreshold(total), "total=%d", total)
	}
}

func TestOutcomeNotes(t *testing.T) {
	tally := Tally{Yes: 6, No: 4, Total: 10, EligibleVoterCount: 12}
	out := Evaluate(ConditionMajority, tally)
	assert.Equal(t,
		"passed by MAJORITY: majority in favour (yes=6 no=4 total=10 eligible=12 top_rank_yes=0)",
		out.Notes(tally))
}
