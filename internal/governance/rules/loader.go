package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"civitas/internal/governance/models"
	pstrings "civitas/pkg/platform/strings"
)

//go:embed default_rules.yaml
var defaultTable []byte

// ruleSpec is the on-disk shape of one rule.
type ruleSpec struct {
	ProposeRanks     []rankSpec `yaml:"propose_ranks"`
	VoteRanks        []rankSpec `yaml:"vote_ranks"`
	VotingWindow     string     `yaml:"voting_window"`
	CanFastTrack     bool       `yaml:"can_fast_track"`
	PassingCondition string     `yaml:"passing_condition"`
	RequiredMetadata []string   `yaml:"required_metadata"`
}

// rankSpec is either a single tier (3) or an inclusive range ("0-10").
type rankSpec struct {
	from, to models.RankTier
}

func (r *rankSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: rank must be a number or a range", node.Line)
	}
	lo, hi, isRange := strings.Cut(node.Value, "-")
	from, err := parseTier(lo)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	to := from
	if isRange {
		if to, err = parseTier(hi); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		if to < from {
			return fmt.Errorf("line %d: rank range %q is reversed", node.Line, node.Value)
		}
	}
	r.from, r.to = from, to
	return nil
}

func parseTier(s string) (models.RankTier, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid rank tier %q", s)
	}
	if n > int(models.MaxRankTier) {
		return 0, fmt.Errorf("rank tier %d exceeds %d", n, models.MaxRankTier)
	}
	return models.RankTier(n), nil
}

func toRankSet(specs []rankSpec) models.RankSet {
	var ranks []models.RankTier
	for _, s := range specs {
		ranks = append(ranks, models.RankRange(s.from, s.to).Slice()...)
	}
	return models.NewRankSet(ranks...)
}

// Load parses a YAML rule table from r.
func Load(r io.Reader) (*Registry, error) {
	var table map[string]map[string]ruleSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("decode rule table: %w", err)
	}

	govNames := make([]string, 0, len(table))
	for g := range table {
		govNames = append(govNames, g)
	}
	slices.Sort(govNames)

	var parsed []models.GovernanceRule
	for _, govName := range govNames {
		gov, err := models.ParseGovernanceKind(govName)
		if err != nil {
			return nil, fmt.Errorf("governance kind %q: %w", govName, err)
		}
		lawNames := make([]string, 0, len(table[govName]))
		for l := range table[govName] {
			lawNames = append(lawNames, l)
		}
		slices.Sort(lawNames)

		for _, lawName := range lawNames {
			spec := table[govName][lawName]
			law, err := models.ParseLawKind(lawName)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", govName, lawName, err)
			}
			window, err := time.ParseDuration(spec.VotingWindow)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: voting_window: %w", govName, lawName, err)
			}
			cond, err := models.ParsePassingCondition(spec.PassingCondition)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", govName, lawName, err)
			}
			parsed = append(parsed, models.GovernanceRule{
				LawKind:          law,
				GovernanceKind:   gov,
				ProposeRanks:     toRankSet(spec.ProposeRanks),
				VoteRanks:        toRankSet(spec.VoteRanks),
				VotingWindow:     window,
				CanFastTrack:     spec.CanFastTrack,
				PassingCondition: cond,
				RequiredMetadata: pstrings.DedupeAndTrim(spec.RequiredMetadata),
			})
		}
	}
	return New(parsed...)
}

// LoadFile loads a rule table from path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the rule table compiled into the binary.
func Default() (*Registry, error) {
	return Load(bytes.NewReader(defaultTable))
}

// FromPath loads path when set, otherwise the compiled-in table.
func FromPath(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}
