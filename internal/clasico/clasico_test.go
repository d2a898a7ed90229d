package clasico

import (
	"errors"
	"testing"
)

func TestRivalNeverSelf(t *testing.T) {
	for _, team := range Teams() {
		if team.ID.Rival() == team.ID {
			t.Errorf("rival of %q is itself", team.ID)
		}
		if _, ok := LookupTeam(team.ID.Rival()); !ok {
			t.Errorf("rival of %q is not a playable team", team.ID)
		}
	}
}

func TestParse(t *testing.T) {
	if _, err := ParseTeam("pumas"); !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("ParseTeam(pumas) err = %v, want ErrUnknownTeam", err)
	}
	if _, err := ParseTeam("neutral"); !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("neutral must not be playable, err = %v", err)
	}
	if _, err := ParseMode("mesa"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("ParseMode(mesa) err = %v, want ErrUnknownMode", err)
	}
	if _, err := ParseRoute("karaoke"); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("ParseRoute(karaoke) err = %v, want ErrUnknownRoute", err)
	}
	if m, err := ParseMediaType(""); err != nil || m != "" {
		t.Errorf("empty media type should be accepted, got %q, %v", m, err)
	}
	if _, err := ParseMediaType("gif"); !errors.Is(err, ErrUnknownMediaType) {
		t.Errorf("ParseMediaType(gif) err = %v", err)
	}
}

func TestModeForPlayers(t *testing.T) {
	tests := []struct {
		players int
		want    Mode
	}{
		{0, ModeIndividual},
		{1, ModeIndividual},
		{2, ModeDueto},
		{3, ModeGrupo},
		{12, ModeGrupo},
	}
	for _, tt := range tests {
		if got := ModeForPlayers(tt.players); got != tt.want {
			t.Errorf("ModeForPlayers(%d) = %q, want %q", tt.players, got, tt.want)
		}
	}
}

func TestArchetypeUnlockRoute(t *testing.T) {
	tests := []struct {
		cond   string
		want   RouteID
		wantOK bool
	}{
		{"complete_challenge:respuesta_incomoda", RouteRespuestaIncomoda, true},
		{"complete_challenge:", "", false},
		{"participate_without_team", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Archetype{UnlockCondition: tt.cond}.UnlockRoute()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("UnlockRoute(%q) = %q, %v; want %q, %v", tt.cond, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestArchetypeValidate(t *testing.T) {
	a := Archetype{ID: "x"}
	if err := a.Validate(); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("archetype without routes should fail validation, got %v", err)
	}
	a.CompatibleRoutes = []RouteID{RouteCaosColectivo}
	if err := a.Validate(); err != nil {
		t.Errorf("valid archetype: %v", err)
	}
}

func TestCampaignAllows(t *testing.T) {
	c := Campaign{
		AllowedChallengeTypes: []string{"confesion"},
		AllowedThemeTags:      []string{"rivalidad"},
	}
	tests := []struct {
		name string
		tags Tags
		want bool
	}{
		{"all match", Tags{ChallengeType: "confesion", ThemeTag: "rivalidad", EmotionalTier: "alto"}, true},
		{"type mismatch", Tags{ChallengeType: "canto", ThemeTag: "rivalidad"}, false},
		{"theme mismatch", Tags{ChallengeType: "confesion", ThemeTag: "idolos"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Allows(tt.tags); got != tt.want {
				t.Errorf("Allows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChallengeFilter(t *testing.T) {
	team := Challenge{ID: "t", Team: TeamTigres, Mode: ModeIndividual}
	arch := Challenge{ID: "a", ArchetypeID: "villamelon", RouteID: RouteCaosColectivo, Mode: ModeIndividual}

	f := ChallengeFilter{Team: TeamTigres, Mode: ModeIndividual, TeamLevel: true}
	if !f.Match(team) || f.Match(arch) {
		t.Errorf("team-level filter matched wrong templates")
	}

	f = ChallengeFilter{ArchetypeID: "villamelon", RouteID: RouteCaosColectivo, Mode: ModeIndividual}
	if f.Match(team) || !f.Match(arch) {
		t.Errorf("archetype filter matched wrong templates")
	}
}
