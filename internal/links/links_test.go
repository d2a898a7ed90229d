package links

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinda/clasico/internal/clasico"
)

func TestBuild(t *testing.T) {
	got, err := Build("", Params{Brand: "tigres", Emotion: "tribal", Mode: "grupo", Location: "bar"})
	require.NoError(t, err)
	assert.Equal(t, "https://brinda.io/play?brand=tigres&emotion=tribal&location=bar&mode=grupo", got)

	got, err = Build("https://example.com/go?ref=qr", Params{Capsule: "clasico regio"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/go?capsule=clasico+regio&ref=qr", got)

	_, err = Build("", Params{Brand: "pumas"})
	assert.ErrorIs(t, err, clasico.ErrUnknownTeam)
	_, err = Build("", Params{Mode: "mesa"})
	assert.ErrorIs(t, err, clasico.ErrUnknownMode)
}

func TestParseRoundTrip(t *testing.T) {
	in := Params{Capsule: "c1", Brand: "rayados", Emotion: "nostalgico", Mode: "dueto", Location: "estadio"}
	link, err := Build(DefaultBaseURL, in)
	require.NoError(t, err)

	out, err := Parse(link)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestContext(t *testing.T) {
	ctx, err := Params{Brand: "rayados", Mode: "dueto"}.Context()
	require.NoError(t, err)
	want := clasico.NewContext(clasico.TeamRayados)
	want.Campaign.Mode = clasico.ModeDueto
	if diff := cmp.Diff(want, ctx); diff != "" {
		t.Errorf("Context mismatch (-want +got):\n%s", diff)
	}

	_, err = Params{}.Context()
	assert.ErrorIs(t, err, clasico.ErrUnknownTeam)
}
