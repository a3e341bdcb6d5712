package models

import (
	"slices"
	"strconv"
	"strings"
)

// RankTier is a member's numeric authority level. Lower is more senior.
type RankTier int

// TopRank is the top-authority tier (the sovereign, council chair, ...).
const TopRank RankTier = 0

// MaxRankTier is the most junior tier a rule or member may name.
const MaxRankTier RankTier = 1000

func (r RankTier) IsTop() bool { return r == TopRank }

// RankSet is an immutable set of rank tiers. The zero value is empty.
type RankSet struct {
	ranks []RankTier
}

// NewRankSet builds a set from ranks, dropping duplicates.
func NewRankSet(ranks ...RankTier) RankSet {
	out := slices.Clone(ranks)
	slices.Sort(out)
	return RankSet{ranks: slices.Compact(out)}
}

// RankRange builds the inclusive set [from, to], clamped to
// [TopRank, MaxRankTier].
func RankRange(from, to RankTier) RankSet {
	from = max(from, TopRank)
	to = min(to, MaxRankTier)
	if to < from {
		return RankSet{}
	}
	out := make([]RankTier, 0, int(to-from)+1)
	for r := from; r <= to; r++ {
		out = append(out, r)
	}
	return RankSet{ranks: out}
}

func (s RankSet) Contains(r RankTier) bool {
	_, ok := slices.BinarySearch(s.ranks, r)
	return ok
}

func (s RankSet) Len() int      { return len(s.ranks) }
func (s RankSet) IsEmpty() bool { return len(s.ranks) == 0 }

// Slice returns a sorted copy of the ranks.
func (s RankSet) Slice() []RankTier { return slices.Clone(s.ranks) }

// Ints returns the ranks as plain ints, for storage queries.
func (s RankSet) Ints() []int {
	out := make([]int, len(s.ranks))
	for i, r := range s.ranks {
		out[i] = int(r)
	}
	return out
}

func (s RankSet) String() string {
	parts := make([]string, len(s.ranks))
	for i, r := range s.ranks {
		parts[i] = strconv.Itoa(int(r))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
