package clasico

import (
	"fmt"
	"strings"
)

type RouteID string

const (
	RouteRuedaDesmadre     RouteID = "rueda_desmadre"
	RouteRespuestaIncomoda RouteID = "respuesta_incomoda"
	RouteCaosColectivo     RouteID = "caos_colectivo"
	RouteKaraokeEmocional  RouteID = "karaoke_emocional"
	RouteRitualVictoria    RouteID = "ritual_victoria"
)

var routeIDs = []RouteID{
	RouteRuedaDesmadre,
	RouteRespuestaIncomoda,
	RouteCaosColectivo,
	RouteKaraokeEmocional,
	RouteRitualVictoria,
}

func RouteIDs() []RouteID { return routeIDs }

func ParseRoute(s string) (RouteID, error) {
	for _, r := range routeIDs {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRoute, s)
}

// Describe returns the short mechanic description used in generation prompts.
func (r RouteID) Describe() string {
	switch r {
	case RouteRuedaDesmadre:
		return "Desafíos aleatorios de una ruleta"
	case RouteRespuestaIncomoda:
		return "Confesiones y respuestas incómodas"
	case RouteCaosColectivo:
		return "Quiz y preguntas sobre el clásico"
	case RouteKaraokeEmocional:
		return "Cantar o recitar algo relacionado con el equipo"
	case RouteRitualVictoria:
		return "Realizar un ritual o celebración especial"
	default:
		return "Desafío general"
	}
}

type MechanicType string

const (
	MechanicWheel       MechanicType = "random_wheel"
	MechanicVoiceOrText MechanicType = "voice_or_text"
	MechanicQuiz        MechanicType = "quiz"
	MechanicVideo       MechanicType = "video"
	MechanicKaraoke     MechanicType = "karaoke"
	MechanicRitual      MechanicType = "ritual"
)

type WheelOption struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

type QuizQuestion struct {
	Text          string `json:"text" yaml:"text"`
	CorrectAnswer string `json:"correctAnswer" yaml:"correct_answer"`
}

// Mechanics is a tagged variant: Type selects which of the payload fields
// are meaningful.
type Mechanics struct {
	Type        MechanicType   `json:"type" yaml:"type"`
	Options     []WheelOption  `json:"options,omitempty" yaml:"options,omitempty"`
	Questions   []QuizQuestion `json:"questions,omitempty" yaml:"questions,omitempty"`
	MaxLength   int            `json:"maxLength,omitempty" yaml:"max_length,omitempty"`
	VoteOptions []string       `json:"voteOptions,omitempty" yaml:"vote_options,omitempty"`
	Media       string         `json:"media,omitempty" yaml:"media,omitempty"`
	Scoring     string         `json:"scoring,omitempty" yaml:"scoring,omitempty"`
}

type Route struct {
	ID          RouteID   `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Mechanics   Mechanics `json:"mechanics" yaml:"mechanics"`
}

const unlockPrefix = "complete_challenge:"

type Archetype struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Team             TeamID    `json:"team" yaml:"team"`
	Description      string    `json:"description" yaml:"description"`
	UnlockCondition  string    `json:"unlockCondition" yaml:"unlock_condition"`
	CompatibleRoutes []RouteID `json:"compatibleRoutes" yaml:"compatible_routes"`
	ChallengeModes   []Mode    `json:"challengeModes" yaml:"challenge_modes"`
	StickerURL       string    `json:"stickerUrl,omitempty" yaml:"sticker_url,omitempty"`
	IsUnlocked       bool      `json:"isUnlocked" yaml:"is_unlocked"`
}

// UnlockRoute returns the route whose completion unlocks the archetype, or
// false when the condition is not of the complete_challenge form.
func (a Archetype) UnlockRoute() (RouteID, bool) {
	rest, ok := strings.CutPrefix(a.UnlockCondition, unlockPrefix)
	if !ok || rest == "" {
		return "", false
	}
	return RouteID(rest), true
}

// Validate checks the structural invariants of an archetype record.
func (a Archetype) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: archetype without id", ErrInvalidRequest)
	}
	if len(a.CompatibleRoutes) == 0 {
		return fmt.Errorf("%w: archetype %q has no compatible routes", ErrInvalidRequest, a.ID)
	}
	return nil
}
