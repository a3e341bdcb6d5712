package models

import "fmt"

// Outcome is the result of applying a passing condition to a tally.
type Outcome struct {
	Status    Status
	Condition PassingCondition
	Reason    string
}

func (o Outcome) Passed() bool { return o.Status == StatusPassed }

// SupermajorityThreshold returns ceil(2*total/3).
func SupermajorityThreshold(total int) int {
	return (2*total + 2) / 3
}

// Evaluate applies cond to t. With zero votes cast, every condition other
// than SovereignOnly rejects for lack of quorum; SovereignOnly rejects
// anyway because no sovereign Yes exists.
func Evaluate(cond PassingCondition, t Tally) Outcome {
	out := Outcome{Status: StatusRejected, Condition: cond}

	switch cond {
	case ConditionSovereignOnly:
		if t.TopRankYes > 0 {
			out.Status = StatusPassed
			out.Reason = "sovereign approved"
		} else {
			out.Reason = "no sovereign approval"
		}
		return out
	case ConditionMajority, ConditionSupermajority, ConditionUnanimous:
		if t.Total == 0 {
			out.Reason = "no quorum"
			return out
		}
	default:
		out.Reason = "unknown passing condition"
		return out
	}

	switch cond {
	case ConditionMajority:
		if t.Yes > t.No {
			out.Status = StatusPassed
			out.Reason = "majority in favour"
		} else {
			out.Reason = "majority not reached"
		}
	case ConditionSupermajority:
		threshold := SupermajorityThreshold(t.Total)
		if t.Yes >= threshold {
			out.Status = StatusPassed
			out.Reason = fmt.Sprintf("supermajority reached (threshold %d)", threshold)
		} else {
			out.Reason = fmt.Sprintf("supermajority not reached (threshold %d)", threshold)
		}
	case ConditionUnanimous:
		if t.No == 0 && t.Yes == t.EligibleVoterCount {
			out.Status = StatusPassed
			out.Reason = "unanimous"
		} else {
			out.Reason = "not unanimous"
		}
	}
	return out
}

// Notes renders the audit summary stored in resolution notes.
func (o Outcome) Notes(t Tally) string {
	return fmt.Sprintf("%s by %s: %s (yes=%d no=%d total=%d eligible=%d top_rank_yes=%d)",
		o.Status, o.Condition, o.Reason, t.Yes, t.No, t.Total, t.EligibleVoterCount, t.TopRankYes)
}
