package generator

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/brinda/clasico/internal/clasico"
)

//go:embed prompt.tmpl
var promptText string

var promptTmpl = template.Must(template.New("prompt").Parse(promptText))

// PromptInput is everything a challenge prompt is built from. Archetype and
// Route are optional.
type PromptInput struct {
	Team      clasico.Team
	Rival     clasico.Team
	Mode      clasico.Mode
	Location  string
	Emotion   string
	Archetype *clasico.Archetype
	Route     *clasico.Route
	// Example is shown to the model as a sample challenge.
	Example string
}

// NewPromptInput fills team, rival and campaign settings from ctx.
func NewPromptInput(ctx clasico.Context, mode clasico.Mode) PromptInput {
	team, ok := clasico.LookupTeam(ctx.Team)
	if !ok {
		team = clasico.Team{ID: ctx.Team, Name: string(ctx.Team)}
	}
	rival, _ := clasico.LookupTeam(ctx.Team.Rival())
	return PromptInput{
		Team:     team,
		Rival:    rival,
		Mode:     mode,
		Location: ctx.Campaign.Location,
		Emotion:  ctx.Campaign.Emotion,
	}
}

func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	if err := promptTmpl.Execute(&b, in); err != nil {
		// The template only reads fields of PromptInput.
		panic(err)
	}
	return b.String()
}
