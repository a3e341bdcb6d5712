// Package rules holds the immutable governance rule table.
//
// The table is keyed by (law kind, governance kind). Adding a law or a
// governance structure means adding rows, never changing engine code.
package rules

import (
	"slices"

	"civitas/internal/governance/models"
	dErrors "civitas/pkg/domain-errors"
)

type key struct {
	law models.LawKind
	gov models.GovernanceKind
}

// Registry is a read-only rule table. It is safe for concurrent use; nothing
// mutates it after New returns.
type Registry struct {
	rules map[key]models.GovernanceRule
	laws  []models.LawKind
	govs  []models.GovernanceKind
}

// New validates rules and builds a registry. A duplicate (law, governance)
// key is rejected rather than overwritten.
func New(rules ...models.GovernanceRule) (*Registry, error) {
	r := &Registry{rules: make(map[key]models.GovernanceRule, len(rules))}
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		k := key{law: rule.LawKind, gov: rule.GovernanceKind}
		if _, exists := r.rules[k]; exists {
			return nil, dErrors.New(dErrors.CodeValidation,
				"duplicate rule for "+string(rule.GovernanceKind)+"/"+string(rule.LawKind))
		}
		rule.RequiredMetadata = slices.Clone(rule.RequiredMetadata)
		r.rules[k] = rule
		if !slices.Contains(r.laws, rule.LawKind) {
			r.laws = append(r.laws, rule.LawKind)
		}
		if !slices.Contains(r.govs, rule.GovernanceKind) {
			r.govs = append(r.govs, rule.GovernanceKind)
		}
	}
	slices.Sort(r.laws)
	slices.Sort(r.govs)
	return r, nil
}

// Get returns the rule for law under gov.
func (r *Registry) Get(law models.LawKind, gov models.GovernanceKind) (models.GovernanceRule, bool) {
	rule, ok := r.rules[key{law: law, gov: gov}]
	if !ok {
		return models.GovernanceRule{}, false
	}
	rule.RequiredMetadata = slices.Clone(rule.RequiredMetadata)
	return rule, true
}

// ListProposable returns, sorted, the laws under gov whose propose ranks
// contain rank.
func (r *Registry) ListProposable(gov models.GovernanceKind, rank models.RankTier) []models.LawKind {
	var out []models.LawKind
	for _, law := range r.laws {
		rule, ok := r.rules[key{law: law, gov: gov}]
		if ok && rule.ProposeRanks.Contains(rank) {
			out = append(out, law)
		}
	}
	return out
}

// Laws lists every law kind present in the table.
func (r *Registry) Laws() []models.LawKind { return slices.Clone(r.laws) }

// GovernanceKinds lists every governance kind present in the table.
func (r *Registry) GovernanceKinds() []models.GovernanceKind { return slices.Clone(r.govs) }

// Len is the number of rules.
func (r *Registry) Len() int { return len(r.rules) }
