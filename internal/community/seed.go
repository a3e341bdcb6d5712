package community

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
)

// Writer is implemented by both bundled stores.
type Writer interface {
	SaveCommunity(ctx context.Context, c Community) error
	SaveMember(ctx context.Context, m Member) error
}

type seedFile struct {
	Communities []struct {
		ID         string         `yaml:"id"`
		Name       string         `yaml:"name"`
		Governance string         `yaml:"governance"`
		Leader     string         `yaml:"leader"`
		Members    map[string]int `yaml:"members"`
	} `yaml:"communities"`
}

// Seed is a parsed set of communities and their members.
type Seed struct {
	Communities []Community
	Members     []Member
}

// LoadSeed parses a YAML seed document:
//
//	communities:
//	  - id: north
//	    governance: MONARCHY
//	    leader: king
//	    members: {king: 0, duke: 1}
func LoadSeed(r io.Reader) (*Seed, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seed := &Seed{}
	for i, c := range doc.Communities {
		cid, err := id.ParseCommunityID(c.ID)
		if err != nil {
			return nil, fmt.Errorf("community %d: %w", i, err)
		}
		gov, err := models.ParseGovernanceKind(c.Governance)
		if err != nil {
			return nil, fmt.Errorf("community %s: %w", cid, err)
		}
		community := Community{ID: cid, Name: c.Name, GovernanceKind: gov}
		if c.Leader != "" {
			if community.LeaderID, err = id.ParseActorID(c.Leader); err != nil {
				return nil, fmt.Errorf("community %s leader: %w", cid, err)
			}
		}
		seed.Communities = append(seed.Communities, community)

		for actor, rank := range c.Members {
			aid, err := id.ParseActorID(actor)
			if err != nil {
				return nil, fmt.Errorf("community %s member: %w", cid, err)
			}
			if rank < 0 {
				return nil, fmt.Errorf("community %s member %s: negative rank %d", cid, aid, rank)
			}
			if rank > int(models.MaxRankTier) {
				return nil, fmt.Errorf("community %s member %s: rank %d exceeds %d", cid, aid, rank, models.MaxRankTier)
			}
			seed.Members = append(seed.Members, Member{CommunityID: cid, ActorID: aid, Rank: models.RankTier(rank)})
		}
	}
	return seed, nil
}

func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// Apply writes communities before members so member foreign keys resolve.
func (s *Seed) Apply(ctx context.Context, w Writer) error {
	if txw, ok := w.(transactional); ok {
		return txw.WithinTx(ctx, func(ctx context.Context) error { return s.apply(ctx, w) })
	}
	return s.apply(ctx, w)
}

// transactional writers apply the whole seed atomically.
type transactional interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func (s *Seed) apply(ctx context.Context, w Writer) error {
	for _, c := range s.Communities {
		if err := w.SaveCommunity(ctx, c); err != nil {
			return fmt.Errorf("save community %s: %w", c.ID, err)
		}
	}
	for _, m := range s.Members {
		if err := w.SaveMember(ctx, m); err != nil {
			return fmt.Errorf("save member %s/%s: %w", m.CommunityID, m.ActorID, err)
		}
	}
	return nil
}
