// Package clasico defines the core domain types of the Clásico Regio challenge
// game: teams, play modes, routes, archetypes, challenge templates and rewards.
package clasico

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownTeam      = errors.New("unknown team")
	ErrUnknownMode      = errors.New("unknown play mode")
	ErrUnknownRoute     = errors.New("unknown route")
	ErrUnknownArchetype = errors.New("unknown archetype")
	ErrUnknownMediaType = errors.New("unknown media type")
	ErrInvalidRequest   = errors.New("invalid request")
)

type TeamID string

const (
	TeamTigres  TeamID = "tigres"
	TeamRayados TeamID = "rayados"

	// TeamNeutral only owns archetypes; it is never a playable team.
	TeamNeutral TeamID = "neutral"
)

type Styles struct {
	PrimaryColor   string `json:"primaryColor" yaml:"primary_color"`
	SecondaryColor string `json:"secondaryColor" yaml:"secondary_color"`
	Font           string `json:"font" yaml:"font"`
	Logo           string `json:"logo" yaml:"logo"`
}

type Team struct {
	ID          TeamID `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"shortName"`
	Styles      Styles `json:"styles"`
	ShotName    string `json:"shotName"`
	StickerName string `json:"stickerName"`
	Mascot      string `json:"mascot"`
}

var teams = map[TeamID]Team{
	TeamTigres: {
		ID:        TeamTigres,
		Name:      "Tigres UANL",
		ShortName: "Tigres",
		Styles: Styles{
			PrimaryColor:   "#FDB913",
			SecondaryColor: "#000000",
			Font:           "Montserrat",
			Logo:           "/placeholder.svg?height=100&width=100",
		},
		ShotName:    "Gignac Special",
		StickerName: "Sticker Tigre Salvaje",
		Mascot:      "Gignac",
	},
	TeamRayados: {
		ID:        TeamRayados,
		Name:      "Rayados de Monterrey",
		ShortName: "Rayados",
		Styles: Styles{
			PrimaryColor:   "#003DA6",
			SecondaryColor: "#FFFFFF",
			Font:           "Roboto",
			Logo:           "/placeholder.svg?height=100&width=100",
		},
		ShotName:    "Rayado Power",
		StickerName: "Sticker Rayo Explosivo",
		Mascot:      "Palermo",
	},
}

// Teams returns both playable teams in a stable order.
func Teams() []Team {
	return []Team{teams[TeamTigres], teams[TeamRayados]}
}

func LookupTeam(id TeamID) (Team, bool) {
	t, ok := teams[id]
	return t, ok
}

func ParseTeam(s string) (TeamID, error) {
	id := TeamID(s)
	if _, ok := teams[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTeam, s)
	}
	return id, nil
}

// Rival returns the other playable team. It never returns the team itself.
func (id TeamID) Rival() TeamID {
	if id == TeamTigres {
		return TeamRayados
	}
	return TeamTigres
}

type Mode string

const (
	ModeIndividual Mode = "individual"
	ModeDueto      Mode = "dueto"
	ModeGrupo      Mode = "grupo"
)

var modes = []Mode{ModeIndividual, ModeDueto, ModeGrupo}

func Modes() []Mode { return modes }

func ParseMode(s string) (Mode, error) {
	for _, m := range modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ModeForPlayers maps a head count to the play mode used for it.
func ModeForPlayers(n int) Mode {
	switch {
	case n <= 1:
		return ModeIndividual
	case n == 2:
		return ModeDueto
	default:
		return ModeGrupo
	}
}

// Describe returns the phrase used in generation prompts for the mode.
func (m Mode) Describe() string {
	switch m {
	case ModeIndividual:
		return "una sola persona"
	case ModeDueto:
		return "dos personas interactuando"
	default:
		return "un grupo de personas"
	}
}

type MediaType string

const (
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
	MediaText  MediaType = "text"
)

func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(s) {
	case MediaAudio, MediaVideo, MediaText:
		return MediaType(s), nil
	case "":
		return "", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMediaType, s)
}

// Context is the per-session selection a challenge is resolved against.
type Context struct {
	Team     TeamID           `json:"team"`
	Campaign CampaignSettings `json:"campaign"`
}

type CampaignSettings struct {
	Emotion    string `json:"emotion"`
	Mode       Mode   `json:"mode"`
	Location   string `json:"location"`
	Difficulty int    `json:"difficulty"`
}

// NewContext returns a session context for team with the default campaign
// settings of a fresh session.
func NewContext(team TeamID) Context {
	return Context{
		Team: team,
		Campaign: CampaignSettings{
			Emotion:    "tribal",
			Mode:       ModeGrupo,
			Location:   "bar",
			Difficulty: 3,
		},
	}
}

type Completion struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	Challenge   string    `json:"challenge"`
	ArchetypeID string    `json:"archetype_id,omitempty"`
	RouteID     RouteID   `json:"route_id,omitempty"`
	Mode        Mode      `json:"mode"`
	Team        TeamID    `json:"team"`
	MediaType   MediaType `json:"media_type,omitempty"`
	MediaURL    string    `json:"media_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Money is a convenience for reward values expressed in whole pesos.
func Money(pesos int64) *decimal.Decimal {
	d := decimal.NewFromInt(pesos)
	return &d
}
