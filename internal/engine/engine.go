// Package engine resolves challenge requests into runtime challenges: it picks
// a template, fills its placeholders and optionally swaps in a generated text.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/generator"
	"github.com/brinda/clasico/internal/reward"
	"github.com/brinda/clasico/internal/templates"
)

// Source is the data the engine selects from. *catalog.Catalog implements it.
type Source interface {
	Archetype(ctx context.Context, id string) (clasico.Archetype, error)
	Route(ctx context.Context, id clasico.RouteID) (clasico.Route, error)
	Challenges(ctx context.Context, f clasico.ChallengeFilter) []clasico.Challenge
	Campaign(ctx context.Context, id string) (clasico.Campaign, bool)
	GenericChallenge(archetypeID string) string
}

// Rand picks uniformly in [0, n).
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

type Request struct {
	Context clasico.Context
	// Mode defaults to the context's campaign mode.
	Mode        clasico.Mode
	ArchetypeID string
	RouteID     clasico.RouteID
	ABGroup     string
	CampaignID  string
	// Generate asks for a generated text when a generator is configured.
	Generate bool
}

type Engine struct {
	src     Source
	gen     generator.Generator
	params  generator.Params
	timeout time.Duration
	rng     Rand
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Engine)

func WithGenerator(g generator.Generator) Option { return func(e *Engine) { e.gen = g } }
// WithTimeout bounds generation. A non-positive d keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}
func WithRand(r Rand) Option { return func(e *Engine) { e.rng = r } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:     src,
		params:  generator.DefaultParams(),
		timeout: 8 * time.Second,
		rng:     globalRand{},
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Generate materializes a challenge for req. It returns nil without error when
// no template matches, and an error only for invalid input. Generator failures
// never surface; the template text is used instead.
func (e *Engine) Generate(ctx context.Context, req Request) (*clasico.RuntimeChallenge, error) {
	team, err := clasico.ParseTeam(string(req.Context.Team))
	if err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = req.Context.Campaign.Mode
	}
	mode, err := clasico.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	if (req.ArchetypeID == "") != (req.RouteID == "") {
		return nil, fmt.Errorf("%w: archetype and route must be given together", clasico.ErrInvalidRequest)
	}

	filter := clasico.ChallengeFilter{Team: team, Mode: mode, TeamLevel: true}
	var (
		arch  *clasico.Archetype
		route *clasico.Route
	)
	if req.ArchetypeID != "" {
		a, err := e.src.Archetype(ctx, req.ArchetypeID)
		if err != nil {
			return nil, err
		}
		if _, err := clasico.ParseRoute(string(req.RouteID)); err != nil {
			return nil, err
		}
		r, err := e.src.Route(ctx, req.RouteID)
		if err != nil {
			return nil, err
		}
		arch, route = &a, &r
		filter = clasico.ChallengeFilter{ArchetypeID: a.ID, RouteID: r.ID, Mode: mode}
	}

	candidates := e.src.Challenges(ctx, filter)
	if req.CampaignID != "" {
		candidates = e.narrow(ctx, req.CampaignID, candidates)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	pick := candidates[e.rng.IntN(len(candidates))]

	now := e.now()
	text := templates.Resolve(pick.Text, req.Context, now)
	if req.ABGroup == GroupB {
		text = Intensify(text)
	}

	source := clasico.SourceTemplate
	if req.Generate && e.gen != nil {
		in := generator.NewPromptInput(req.Context, mode)
		in.Archetype, in.Route = arch, route
		if arch != nil {
			in.Example = templates.Resolve(e.src.GenericChallenge(arch.ID), req.Context, now)
		}
		generated, err := e.generate(ctx, generator.BuildPrompt(in))
		if err != nil {
			e.logger.WarnContext(ctx, "challenge generation failed, using template",
				"template_id", pick.ID, "error", err)
		} else {
			text = templates.Resolve(generated, req.Context, now)
			source = clasico.SourceGenerated
		}
	}

	rt := pick.RewardType
	if !rt.Known() {
		e.logger.WarnContext(ctx, "template has unknown reward type",
			"template_id", pick.ID, "reward_type", rt)
		rt = clasico.RewardSymbolicSticker
	}

	return &clasico.RuntimeChallenge{
		ID:          uuid.NewString(),
		TemplateID:  pick.ID,
		Text:        text,
		Team:        team,
		Mode:        mode,
		ArchetypeID: req.ArchetypeID,
		RouteID:     req.RouteID,
		Tags:        pick.Tags,
		RewardType:  rt,
		Reward:      reward.Describe(rt, team),
		Source:      source,
		ABGroup:     req.ABGroup,
		CreatedAt:   now.UTC(),
	}, nil
}

// narrow applies the campaign's tag filter. An empty intersection or an
// unknown campaign leaves the candidates unchanged.
func (e *Engine) narrow(ctx context.Context, campaignID string, candidates []clasico.Challenge) []clasico.Challenge {
	camp, ok := e.src.Campaign(ctx, campaignID)
	if !ok {
		e.logger.WarnContext(ctx, "unknown campaign, not filtering", "campaign_id", campaignID)
		return candidates
	}
	var out []clasico.Challenge
	for _, c := range candidates {
		if camp.Allows(c.Tags) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		e.logger.InfoContext(ctx, "campaign filter matched no templates, ignoring it",
			"campaign_id", campaignID, "candidates", len(candidates))
		return candidates
	}
	return out
}

var errGeneratorPanic = errors.New("generator panicked")

// generate calls the generator bounded by the engine timeout. A generator that
// ignores its context is abandoned when the timeout fires.
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", errGeneratorPanic, r)}
			}
		}()
		text, err := e.gen.Generate(ctx, prompt, e.params)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		text := generator.Clean(r.text)
		if text == "" {
			return "", generator.ErrEmptyResponse
		}
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

const (
	GroupA = "A"
	GroupB = "B"
)

// AssignABGroup puts a session in group A or B with equal probability.
func AssignABGroup(r Rand) string {
	if r == nil {
		r = globalRand{}
	}
	if r.IntN(2) == 1 {
		return GroupB
	}
	return GroupA
}

// Intensify is the group B text variant: the first hedged "como si" becomes
// emphatic.
func Intensify(text string) string {
	return strings.Replace(text, "como si", "como si REALMENTE", 1)
}
