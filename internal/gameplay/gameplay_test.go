package gameplay

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinda/clasico/internal/bus"
	"github.com/brinda/clasico/internal/catalog"
	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/fallback"
	"github.com/brinda/clasico/internal/records"
	"github.com/brinda/clasico/internal/reward"
)

func newService(store records.Store, b bus.Bus) *Service {
	logger := slog.New(slog.DiscardHandler)
	cat := catalog.New(store, fallback.Default(), logger)
	return NewService(cat, store, reward.NewMapper(store, logger), b, logger)
}

func runtimeChallenge() clasico.RuntimeChallenge {
	return clasico.RuntimeChallenge{
		ID:          "rc1",
		TemplateID:  "1",
		Text:        "Confiesa la peor mentira que dijiste para ocultar tu afición al otro equipo.",
		Team:        clasico.TeamRayados,
		Mode:        clasico.ModeIndividual,
		ArchetypeID: "rival_secreto",
		RouteID:     clasico.RouteRespuestaIncomoda,
		RewardType:  clasico.RewardIndividualShot,
	}
}

func TestCompleteDemo(t *testing.T) {
	b := bus.NewBroker()
	events, cancel, err := b.Subscribe(context.Background(), bus.Completions)
	require.NoError(t, err)
	defer cancel()

	res, err := newService(nil, b).Complete(context.Background(), CompleteRequest{
		Challenge: runtimeChallenge(),
		MediaType: "text",
		Response:  "Dije que iba al doctor y fui al Universitario",
	})
	require.NoError(t, err)

	assert.True(t, res.Simulated)
	assert.True(t, strings.HasPrefix(res.Completion.UserID, "demo_user_"))
	assert.Equal(t, clasico.MediaText, res.Completion.MediaType)
	assert.Equal(t, "Rayado Power", res.Reward.Reward.Name)
	require.Len(t, res.Unlocked, 1)
	assert.Equal(t, "rival_secreto", res.Unlocked[0].ID)
	assert.True(t, res.Unlocked[0].IsUnlocked)

	select {
	case data := <-events:
		var ev bus.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, EventCompleted, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no completion event")
	}
}

func TestCompleteUnlocksEveryMatchingArchetype(t *testing.T) {
	rc := runtimeChallenge()
	rc.Team = clasico.TeamTigres
	rc.ArchetypeID = "hater_favorito"
	rc.RouteID = clasico.RouteRuedaDesmadre

	res, err := newService(nil, nil).Complete(context.Background(), CompleteRequest{UserID: "u1", Challenge: rc})
	require.NoError(t, err)
	var ids []string
	for _, a := range res.Unlocked {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"hater_favorito", "comentarista_bar"}, ids)
}

func TestCompleteStored(t *testing.T) {
	store := records.NewMemory(records.Completions, records.UserRewards, records.UserArchetypes)
	s := newService(store, nil)
	ctx := context.Background()

	res, err := s.Complete(ctx, CompleteRequest{UserID: "u1", Challenge: runtimeChallenge(), MediaType: "video", MediaURL: "https://cdn.example/v.mp4"})
	require.NoError(t, err)
	assert.False(t, res.Simulated)

	hist := s.History(ctx, "u1")
	require.Len(t, hist, 1)
	assert.Equal(t, res.Completion.ID, hist[0].ID)
	assert.Equal(t, clasico.MediaVideo, hist[0].MediaType)

	unlocked, err := store.Select(ctx, records.UserArchetypes, records.Filter{"user_id": "u1"})
	require.NoError(t, err)
	assert.Len(t, unlocked, 1)

	rewards, err := store.Select(ctx, records.UserRewards, records.Filter{"user_id": "u1"})
	require.NoError(t, err)
	assert.Len(t, rewards, 1)
}

func TestCompleteMissingTablesSimulates(t *testing.T) {
	res, err := newService(records.NewMemory(), nil).Complete(context.Background(), CompleteRequest{UserID: "u1", Challenge: runtimeChallenge()})
	require.NoError(t, err)
	assert.True(t, res.Simulated)
	assert.Equal(t, "Rayado Power", res.Reward.Reward.Name)
	assert.Empty(t, res.Unlocked, "unlock failures are skipped")
}

func TestCompleteInvalid(t *testing.T) {
	s := newService(nil, nil)
	ctx := context.Background()

	bad := runtimeChallenge()
	bad.Team = "pumas"
	_, err := s.Complete(ctx, CompleteRequest{Challenge: bad})
	assert.ErrorIs(t, err, clasico.ErrUnknownTeam)

	_, err = s.Complete(ctx, CompleteRequest{Challenge: runtimeChallenge(), MediaType: "gif"})
	assert.ErrorIs(t, err, clasico.ErrUnknownMediaType)

	_, err = s.Complete(ctx, CompleteRequest{Challenge: runtimeChallenge(), Response: strings.Repeat("x", 300)})
	assert.ErrorIs(t, err, clasico.ErrInvalidRequest)

	bad = runtimeChallenge()
	bad.Text = ""
	_, err = s.Complete(ctx, CompleteRequest{Challenge: bad})
	assert.ErrorIs(t, err, clasico.ErrInvalidRequest)
}
