package catalog

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/fallback"
	"github.com/brinda/clasico/internal/records"
)

var allTables = []string{
	records.Archetypes, records.Challenges, records.Routes, records.Campaigns,
	records.UserArchetypes,
}

func newCatalog(store records.Store) *Catalog {
	return New(store, fallback.Default(), slog.New(slog.DiscardHandler))
}

func TestDemoModeServesFallback(t *testing.T) {
	c := newCatalog(nil)
	ctx := context.Background()

	assert.Len(t, c.Archetypes(ctx, ""), 7)
	a, err := c.Archetype(ctx, "rival_secreto")
	require.NoError(t, err)
	assert.Equal(t, clasico.TeamRayados, a.Team)

	_, err = c.Archetype(ctx, "nope")
	assert.ErrorIs(t, err, clasico.ErrUnknownArchetype)
	_, err = c.Route(ctx, "nope")
	assert.ErrorIs(t, err, clasico.ErrUnknownRoute)

	assert.NoError(t, c.UnlockArchetype(ctx, "u", "villamelon"))
	assert.Empty(t, c.UserArchetypes(ctx, "u"))
	assert.ErrorIs(t, c.PutChallenge(ctx, clasico.Challenge{}), ErrReadOnly)
}

func TestMissingTablesFallBack(t *testing.T) {
	c := newCatalog(records.NewMemory())
	ctx := context.Background()

	assert.Len(t, c.Routes(ctx), len(clasico.RouteIDs()))
	cp, ok := c.Campaign(ctx, "clasico_regio_2025")
	require.True(t, ok)
	assert.True(t, cp.ABTestingEnabled)
	assert.Empty(t, c.UserArchetypes(ctx, "u"))
}

func TestSeededStore(t *testing.T) {
	store := records.NewMemory(allTables...)
	c := newCatalog(store)
	ctx := context.Background()

	n, err := c.Seed(ctx)
	require.NoError(t, err)
	assert.Greater(t, n, 20)

	got := c.Challenges(ctx, clasico.ChallengeFilter{
		ArchetypeID: "rival_secreto",
		RouteID:     clasico.RouteRespuestaIncomoda,
		Mode:        clasico.ModeIndividual,
	})
	assert.Len(t, got, 2)

	cp, ok := c.Campaign(ctx, "clasico_regio_2025")
	require.True(t, ok)
	assert.Equal(t, []string{"confesion", "canto"}, cp.AllowedChallengeTypes)

	r, err := c.Route(ctx, clasico.RouteRuedaDesmadre)
	require.NoError(t, err)
	assert.Len(t, r.Mechanics.Options, 6)
}

func TestPutChallengeOverrides(t *testing.T) {
	c := newCatalog(records.NewMemory(allTables...))
	ctx := context.Background()

	override := clasico.Challenge{
		ID:         "tigres_solo",
		Team:       clasico.TeamTigres,
		Mode:       clasico.ModeIndividual,
		Text:       "Grita el nombre de {rival} al revés",
		RewardType: clasico.RewardSymbolicSticker,
	}
	require.NoError(t, c.PutChallenge(ctx, override))

	got := c.Challenges(ctx, clasico.ChallengeFilter{Team: clasico.TeamTigres, Mode: clasico.ModeIndividual, TeamLevel: true})
	require.Len(t, got, 1)
	assert.Equal(t, override.Text, got[0].Text)

	bad := override
	bad.RewardType = "yacht"
	assert.ErrorIs(t, c.PutChallenge(ctx, bad), clasico.ErrInvalidRequest)

	bad = override
	bad.ArchetypeID = "villamelon"
	assert.ErrorIs(t, c.PutChallenge(ctx, bad), clasico.ErrInvalidRequest)
}

func TestUnlockArchetype(t *testing.T) {
	c := newCatalog(records.NewMemory(allTables...))
	ctx := context.Background()

	require.NoError(t, c.UnlockArchetype(ctx, "u1", "villamelon"))
	require.NoError(t, c.UnlockArchetype(ctx, "u1", "villamelon"))
	require.NoError(t, c.UnlockArchetype(ctx, "u1", "rival_secreto"))
	require.NoError(t, c.UnlockArchetype(ctx, "u2", "hater_favorito"))

	assert.ElementsMatch(t, []string{"villamelon", "rival_secreto"}, c.UserArchetypes(ctx, "u1"))
}

func TestInvalidStoredArchetypes(t *testing.T) {
	ctx := context.Background()
	hueco := records.Record{"id": "hueco", "name": "Hueco", "team": "tigres", "compatibleRoutes": []any{}}

	t.Run("only invalid rows fall back", func(t *testing.T) {
		store := records.NewMemory(allTables...)
		_, err := store.Insert(ctx, records.Archetypes, hueco)
		require.NoError(t, err)
		c := newCatalog(store)

		_, err = c.Archetype(ctx, "hueco")
		assert.ErrorIs(t, err, clasico.ErrUnknownArchetype)

		as := c.Archetypes(ctx, "")
		assert.Len(t, as, 7)
		for _, a := range as {
			assert.NotEqual(t, "hueco", a.ID)
			assert.NotEmpty(t, a.CompatibleRoutes, a.ID)
		}
	})

	t.Run("invalid rows are skipped next to valid ones", func(t *testing.T) {
		store := records.NewMemory(allTables...)
		c := newCatalog(store)
		_, err := c.Seed(ctx)
		require.NoError(t, err)
		_, err = store.Insert(ctx, records.Archetypes, hueco)
		require.NoError(t, err)

		as := c.Archetypes(ctx, clasico.TeamTigres)
		require.NotEmpty(t, as)
		for _, a := range as {
			assert.NotEqual(t, "hueco", a.ID)
		}
	})
}
