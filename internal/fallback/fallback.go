// Package fallback is the authoritative in-memory data set used whenever the
// record store is absent, in demo mode, or missing its schema.
package fallback

import (
	"embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/templates"
)

//go:embed data/*.yaml
var dataFS embed.FS

type archetypeRecord struct {
	clasico.Archetype `yaml:",inline"`
	FallbackText      string `yaml:"fallback_text"`
}

// Store serves the static data set. All accessors return copies and never fail;
// a miss is an empty slice or false.
type Store struct {
	archetypes []clasico.Archetype
	routes     []clasico.Route
	challenges []clasico.Challenge
	campaigns  []clasico.Campaign
	generic    map[string]string
}

// Load parses and validates the embedded data set.
func Load() (*Store, error) {
	var archs []archetypeRecord
	if err := decode("data/archetypes.yaml", &archs); err != nil {
		return nil, err
	}
	s := &Store{generic: make(map[string]string, len(archs))}
	for _, a := range archs {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		for _, r := range a.CompatibleRoutes {
			if _, err := clasico.ParseRoute(string(r)); err != nil {
				return nil, fmt.Errorf("archetype %s: %w", a.ID, err)
			}
		}
		s.archetypes = append(s.archetypes, a.Archetype)
		s.generic[a.ID] = a.FallbackText
	}

	if err := decode("data/routes.yaml", &s.routes); err != nil {
		return nil, err
	}
	for _, r := range s.routes {
		if _, err := clasico.ParseRoute(string(r.ID)); err != nil {
			return nil, err
		}
	}

	var archChallenges []clasico.Challenge
	if err := decode("data/challenges.yaml", &archChallenges); err != nil {
		return nil, err
	}
	s.challenges = append(templates.TeamChallenges(), archChallenges...)
	for _, c := range s.challenges {
		if !c.RewardType.Known() {
			return nil, fmt.Errorf("challenge %s: unknown reward type %q", c.ID, c.RewardType)
		}
		if _, err := clasico.ParseMode(string(c.Mode)); err != nil {
			return nil, fmt.Errorf("challenge %s: %w", c.ID, err)
		}
	}

	if err := decode("data/campaigns.yaml", &s.campaigns); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(name string, v any) error {
	b, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

var defaultStore = sync.OnceValue(func() *Store {
	s, err := Load()
	if err != nil {
		panic("fallback: embedded data: " + err.Error())
	}
	return s
})

// Default returns the process-wide store built from the embedded data.
func Default() *Store { return defaultStore() }

// ListArchetypes returns the archetypes owned by team, or all of them when
// team is empty.
func (s *Store) ListArchetypes(team clasico.TeamID) []clasico.Archetype {
	out := []clasico.Archetype{}
	for _, a := range s.archetypes {
		if team == "" || a.Team == team {
			out = append(out, cloneArchetype(a))
		}
	}
	return out
}

func (s *Store) GetArchetype(id string) (clasico.Archetype, bool) {
	for _, a := range s.archetypes {
		if a.ID == id {
			return cloneArchetype(a), true
		}
	}
	return clasico.Archetype{}, false
}

func (s *Store) ListChallenges(f clasico.ChallengeFilter) []clasico.Challenge {
	out := []clasico.Challenge{}
	for _, c := range s.challenges {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) GetChallenge(id string) (clasico.Challenge, bool) {
	for _, c := range s.challenges {
		if c.ID == id {
			return c, true
		}
	}
	return clasico.Challenge{}, false
}

func (s *Store) ListRoutes() []clasico.Route {
	out := make([]clasico.Route, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, cloneRoute(r))
	}
	return out
}

func (s *Store) GetRoute(id clasico.RouteID) (clasico.Route, bool) {
	for _, r := range s.routes {
		if r.ID == id {
			return cloneRoute(r), true
		}
	}
	return clasico.Route{}, false
}

func (s *Store) ListCampaigns() []clasico.Campaign {
	return slices.Clone(s.campaigns)
}

func (s *Store) GetCampaign(id string) (clasico.Campaign, bool) {
	for _, c := range s.campaigns {
		if c.ID == id {
			return c, true
		}
	}
	return clasico.Campaign{}, false
}

// GenericChallenge returns the archetype's catch-all challenge text, which may
// contain placeholders. Unknown archetypes get a neutral text.
func (s *Store) GenericChallenge(archetypeID string) string {
	if t, ok := s.generic[archetypeID]; ok && t != "" {
		return t
	}
	return "Cuenta tu mejor anécdota del clásico contra {rival}."
}

func cloneArchetype(a clasico.Archetype) clasico.Archetype {
	a.CompatibleRoutes = slices.Clone(a.CompatibleRoutes)
	a.ChallengeModes = slices.Clone(a.ChallengeModes)
	return a
}

func cloneRoute(r clasico.Route) clasico.Route {
	r.Mechanics.Options = slices.Clone(r.Mechanics.Options)
	r.Mechanics.Questions = slices.Clone(r.Mechanics.Questions)
	r.Mechanics.VoteOptions = slices.Clone(r.Mechanics.VoteOptions)
	return r
}
