package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinda/clasico/internal/catalog"
	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/fallback"
	"github.com/brinda/clasico/internal/generator"
	"github.com/brinda/clasico/internal/templates"
)

// fixedRand always picks index v, clamped to the range, and records the last n.
type fixedRand struct {
	v     int
	lastN int
}

func (r *fixedRand) IntN(n int) int {
	r.lastN = n
	return min(r.v, n-1)
}

var day = time.Date(2025, 4, 12, 20, 0, 0, 0, time.UTC)

func newEngine(opts ...Option) *Engine {
	logger := slog.New(slog.DiscardHandler)
	src := catalog.New(nil, fallback.Default(), logger)
	base := []Option{WithLogger(logger), WithClock(func() time.Time { return day }), WithRand(&fixedRand{})}
	return New(src, append(base, opts...)...)
}

func request(team clasico.TeamID, mode clasico.Mode) Request {
	return Request{Context: clasico.NewContext(team), Mode: mode}
}

func TestTeamLevelEveryPair(t *testing.T) {
	e := newEngine()
	for _, team := range clasico.Teams() {
		for _, mode := range clasico.Modes() {
			rc, err := e.Generate(context.Background(), request(team.ID, mode))
			require.NoError(t, err)
			require.NotNil(t, rc, "%s/%s", team.ID, mode)
			assert.False(t, templates.HasPlaceholders(rc.Text), rc.Text)
			assert.True(t, rc.RewardType.Known())
			assert.NotEmpty(t, rc.Reward.Name)
		}
	}
}

func TestTigresIndividual(t *testing.T) {
	rc, err := newEngine().Generate(context.Background(), request(clasico.TeamTigres, clasico.ModeIndividual))
	require.NoError(t, err)
	require.NotNil(t, rc)

	assert.Equal(t, "tigres_solo", rc.TemplateID)
	assert.Contains(t, rc.Text, "Rayados")
	assert.NotContains(t, rc.Text, "{rival}")
	assert.Equal(t, clasico.SourceTemplate, rc.Source)
	assert.Equal(t, "Gignac Special", rc.Reward.Name)
	assert.Equal(t, day, rc.CreatedAt)
	assert.NotEmpty(t, rc.ID)
}

func TestModeDefaultsToContext(t *testing.T) {
	req := Request{Context: clasico.NewContext(clasico.TeamRayados)}
	rc, err := newEngine().Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, clasico.ModeGrupo, rc.Mode)
}

func TestArchetypeRoute(t *testing.T) {
	known := []string{
		"Confiesa la peor mentira que dijiste para ocultar tu afición al otro equipo.",
		"Confiesa qué jugador del equipo rival te hubiera gustado tener en tu equipo.",
	}
	for pick := range 2 {
		rng := &fixedRand{v: pick}
		req := request(clasico.TeamRayados, clasico.ModeIndividual)
		req.ArchetypeID = "rival_secreto"
		req.RouteID = clasico.RouteRespuestaIncomoda

		rc, err := newEngine(WithRand(rng)).Generate(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, rc)
		assert.Contains(t, known, rc.Text)
		assert.Equal(t, 2, rng.lastN, "selection must range over every candidate")
		assert.Equal(t, "rival_secreto", rc.ArchetypeID)
	}
}

func TestNoCandidatesReturnsNil(t *testing.T) {
	req := request(clasico.TeamTigres, clasico.ModeDueto)
	req.ArchetypeID = "villamelon"
	req.RouteID = clasico.RouteCaosColectivo

	rc, err := newEngine().Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, rc)
}

func TestInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown team", request("pumas", clasico.ModeIndividual), clasico.ErrUnknownTeam},
		{"neutral team", request(clasico.TeamNeutral, clasico.ModeIndividual), clasico.ErrUnknownTeam},
		{"unknown mode", request(clasico.TeamTigres, "mesa"), clasico.ErrUnknownMode},
		{"archetype without route", Request{Context: clasico.NewContext(clasico.TeamTigres), Mode: clasico.ModeIndividual, ArchetypeID: "villamelon"}, clasico.ErrInvalidRequest},
		{"unknown archetype", Request{Context: clasico.NewContext(clasico.TeamTigres), Mode: clasico.ModeIndividual, ArchetypeID: "x", RouteID: clasico.RouteCaosColectivo}, clasico.ErrUnknownArchetype},
		{"unknown route", Request{Context: clasico.NewContext(clasico.TeamTigres), Mode: clasico.ModeIndividual, ArchetypeID: "villamelon", RouteID: "karaoke"}, clasico.ErrUnknownRoute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := newEngine().Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, rc)
		})
	}
}

func TestCampaignFilter(t *testing.T) {
	// rayados_duo is an imitation template, which the campaign does not allow.
	req := request(clasico.TeamRayados, clasico.ModeDueto)
	req.CampaignID = "clasico_regio_2025"
	rc, err := newEngine().Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, rc, "empty intersection falls back to the unfiltered set")
	assert.Equal(t, "rayados_duo", rc.TemplateID)

	// Of the two confessions only the rivalry one passes the theme filter.
	req = request(clasico.TeamRayados, clasico.ModeIndividual)
	req.ArchetypeID = "rival_secreto"
	req.RouteID = clasico.RouteRespuestaIncomoda
	req.CampaignID = "clasico_regio_2025"
	rc, err = newEngine(WithRand(&fixedRand{v: 1})).Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, "1", rc.TemplateID)

	req.CampaignID = "unknown_campaign"
	rc, err = newEngine().Generate(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, rc)
}

func TestABIntensify(t *testing.T) {
	req := request(clasico.TeamTigres, clasico.ModeIndividual)
	req.ArchetypeID = "clasico_doloroso"
	req.RouteID = clasico.RouteKaraokeEmocional

	a, err := newEngine().Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.NotContains(t, a.Text, "REALMENTE")

	req.ABGroup = GroupB
	b, err := newEngine().Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Contains(t, b.Text, "como si REALMENTE acabaran")
	assert.Equal(t, GroupB, b.ABGroup)
}

func TestIntensify(t *testing.T) {
	assert.Equal(t, "baila como si REALMENTE ganaras, como si nada", Intensify("baila como si ganaras, como si nada"))
	assert.Equal(t, "sin cambio", Intensify("sin cambio"))
}

func TestAssignABGroup(t *testing.T) {
	assert.Equal(t, GroupA, AssignABGroup(&fixedRand{v: 0}))
	assert.Equal(t, GroupB, AssignABGroup(&fixedRand{v: 1}))
	assert.Contains(t, []string{GroupA, GroupB}, AssignABGroup(nil))
}

func TestGeneratedText(t *testing.T) {
	var prompt string
	gen := generator.Func(func(_ context.Context, p string, params generator.Params) (string, error) {
		prompt = p
		return `"Grita más fuerte que {rival}"`, nil
	})
	req := request(clasico.TeamTigres, clasico.ModeIndividual)
	req.ArchetypeID = "hater_favorito"
	req.RouteID = clasico.RouteRuedaDesmadre
	req.Generate = true

	rc, err := newEngine(WithGenerator(gen)).Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, "Grita más fuerte que Rayados", rc.Text)
	assert.Equal(t, clasico.SourceGenerated, rc.Source)
	assert.Equal(t, "6", rc.TemplateID, "reward still comes from the selected template")
	assert.Contains(t, prompt, `"El Hater Favorito"`)
	assert.Contains(t, prompt, "Di tres cosas que no soportas de Rayados")
}

func TestZeroTimeoutKeepsDefault(t *testing.T) {
	gen := generator.Func(func(ctx context.Context, _ string, _ generator.Params) (string, error) {
		return "Canta el himno de {team}", ctx.Err()
	})
	req := request(clasico.TeamTigres, clasico.ModeGrupo)
	req.Generate = true

	for _, d := range []time.Duration{0, -time.Second} {
		rc, err := newEngine(WithGenerator(gen), WithTimeout(d)).Generate(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, rc)
		assert.Equal(t, clasico.SourceGenerated, rc.Source, "timeout %v", d)
	}
}

func TestGeneratorNotAskedUnlessRequested(t *testing.T) {
	called := false
	gen := generator.Func(func(context.Context, string, generator.Params) (string, error) {
		called = true
		return "x", nil
	})
	rc, err := newEngine(WithGenerator(gen)).Generate(context.Background(), request(clasico.TeamTigres, clasico.ModeGrupo))
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.False(t, called)
	assert.Equal(t, clasico.SourceTemplate, rc.Source)
}

func TestGeneratorFailuresFallBack(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	gens := map[string]generator.Generator{
		"error": generator.Func(func(context.Context, string, generator.Params) (string, error) {
			return "", errors.New("insufficient_quota")
		}),
		"panic": generator.Func(func(context.Context, string, generator.Params) (string, error) {
			panic("boom")
		}),
		"empty": generator.Func(func(context.Context, string, generator.Params) (string, error) {
			return "  ''  ", nil
		}),
		"ignores context": generator.Func(func(context.Context, string, generator.Params) (string, error) {
			<-block
			return "late", nil
		}),
		"not configured": generator.Chain{},
	}
	for name, gen := range gens {
		t.Run(name, func(t *testing.T) {
			req := request(clasico.TeamRayados, clasico.ModeIndividual)
			req.Generate = true
			rc, err := newEngine(WithGenerator(gen), WithTimeout(20*time.Millisecond)).Generate(context.Background(), req)
			require.NoError(t, err)
			require.NotNil(t, rc)
			assert.Equal(t, clasico.SourceTemplate, rc.Source)
			assert.True(t, strings.Contains(rc.Text, "Tigres"), rc.Text)
		})
	}
}

type badRewardSource struct {
	*catalog.Catalog
}

func (s badRewardSource) Challenges(context.Context, clasico.ChallengeFilter) []clasico.Challenge {
	return []clasico.Challenge{{ID: "x", Team: clasico.TeamTigres, Mode: clasico.ModeIndividual, Text: "Canta", RewardType: "yacht"}}
}

func TestUnknownRewardTypeNormalized(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	src := badRewardSource{catalog.New(nil, fallback.Default(), logger)}
	rc, err := New(src, WithLogger(logger)).Generate(context.Background(), request(clasico.TeamTigres, clasico.ModeIndividual))
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, clasico.RewardSymbolicSticker, rc.RewardType)
	assert.Equal(t, "Sticker Tigre Salvaje", rc.Reward.Name)
}
