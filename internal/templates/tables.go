package templates

import (
	"time"

	"github.com/brinda/clasico/internal/clasico"
)

type teamMode struct {
	team clasico.TeamID
	mode clasico.Mode
}

// teamChallenges is the team × mode table. Each pair has exactly one template.
var teamChallenges = map[teamMode]clasico.Challenge{
	{clasico.TeamTigres, clasico.ModeIndividual}: {
		ID:         "tigres_solo",
		Title:      "Confesión felina",
		Text:       "Confiesa tu peor mentira sobre {rival} usando la palabra 'Gignac'",
		RewardType: clasico.RewardIndividualShot,
		Tags:       clasico.Tags{ChallengeType: "confesion", ThemeTag: "rivalidad", EmotionalTier: "tribal", SocialTrigger: "verguenza"},
	},
	{clasico.TeamTigres, clasico.ModeDueto}: {
		ID:         "tigres_duo",
		Title:      "Duelo de festejos",
		Text:       "¿Quién imita mejor el festejo de Gignac vs {rival}?",
		RewardType: clasico.RewardSymbolicSticker,
		Tags:       clasico.Tags{ChallengeType: "imitacion", ThemeTag: "idolos", EmotionalTier: "competitivo", SocialTrigger: "duelo"},
	},
	{clasico.TeamTigres, clasico.ModeGrupo}: {
		ID:         "tigres_grupo",
		Title:      "Himno alternativo",
		Text:       "Canten un himno alternativo contra {rival} en coro",
		RewardType: clasico.RewardGroupToast,
		Tags:       clasico.Tags{ChallengeType: "canto", ThemeTag: "rivalidad", EmotionalTier: "tribal", SocialTrigger: "coro"},
	},
	{clasico.TeamRayados, clasico.ModeIndividual}: {
		ID:         "rayados_solo",
		Title:      "Confesión rayada",
		Text:       "Confiesa tu peor derrota contra {rival} usando 'Palermo'",
		RewardType: clasico.RewardIndividualShot,
		Tags:       clasico.Tags{ChallengeType: "confesion", ThemeTag: "rivalidad", EmotionalTier: "nostalgico", SocialTrigger: "verguenza"},
	},
	{clasico.TeamRayados, clasico.ModeDueto}: {
		ID:         "rayados_duo",
		Title:      "Estilo Palermo",
		Text:       "¿Quién imita mejor el estilo de Palermo vs {rival}?",
		RewardType: clasico.RewardSymbolicSticker,
		Tags:       clasico.Tags{ChallengeType: "imitacion", ThemeTag: "idolos", EmotionalTier: "competitivo", SocialTrigger: "duelo"},
	},
	{clasico.TeamRayados, clasico.ModeGrupo}: {
		ID:         "rayados_grupo",
		Title:      "Grito de guerra",
		Text:       "Canten un grito de guerra contra {rival} en equipo",
		RewardType: clasico.RewardGroupToast,
		Tags:       clasico.Tags{ChallengeType: "canto", ThemeTag: "rivalidad", EmotionalTier: "tribal", SocialTrigger: "coro"},
	},
}

// TeamChallenge returns the team-level template for team and mode.
func TeamChallenge(team clasico.TeamID, mode clasico.Mode) (clasico.Challenge, bool) {
	c, ok := teamChallenges[teamMode{team, mode}]
	if !ok {
		return clasico.Challenge{}, false
	}
	c.Team = team
	c.Mode = mode
	return c, true
}

// TeamChallenges returns every team-level template.
func TeamChallenges() []clasico.Challenge {
	var out []clasico.Challenge
	for _, team := range clasico.Teams() {
		for _, mode := range clasico.Modes() {
			if c, ok := TeamChallenge(team.ID, mode); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// RewardTriple describes the digital, physical and experience rewards a team
// advertises for the match.
type RewardTriple struct {
	Digital    string `json:"digital"`
	Physical   string `json:"physical"`
	Experience string `json:"experience"`
}

var teamRewards = map[clasico.TeamID]RewardTriple{
	clasico.TeamTigres: {
		Digital:    "NFT 'Leyenda del Clásico - {date}'",
		Physical:   "Shot de 'Gignac Special'",
		Experience: "Filtro AR 'Tigre Salvaje'",
	},
	clasico.TeamRayados: {
		Digital:    "NFT 'Rey del Norte - {date}'",
		Physical:   "Shot de 'Palermo Power'",
		Experience: "Filtro AR 'Rayo Explosivo'",
	},
}

// TeamRewards returns the resolved reward triple for the context's team.
func TeamRewards(ctx clasico.Context, now time.Time) (RewardTriple, bool) {
	t, ok := teamRewards[ctx.Team]
	if !ok {
		return RewardTriple{}, false
	}
	return RewardTriple{
		Digital:    Resolve(t.Digital, ctx, now),
		Physical:   Resolve(t.Physical, ctx, now),
		Experience: Resolve(t.Experience, ctx, now),
	}, true
}
