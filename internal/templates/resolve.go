// Package templates resolves template placeholders and holds the static
// per-team template tables.
package templates

import (
	"strings"
	"time"

	"github.com/brinda/clasico/internal/clasico"
)

const DateLayout = "2006-01-02"

// Resolve substitutes {rival}, {date} and {team} in template. Every occurrence
// is replaced in a single pass, so substituted text is never re-scanned.
// Unrecognized placeholders are left verbatim.
func Resolve(template string, ctx clasico.Context, now time.Time) string {
	team, ok := clasico.LookupTeam(ctx.Team)
	if !ok {
		team = clasico.Team{ID: ctx.Team, Name: string(ctx.Team), ShortName: string(ctx.Team)}
	}
	rival, _ := clasico.LookupTeam(ctx.Team.Rival())

	r := strings.NewReplacer(
		"{rival}", rival.ShortName,
		"{date}", now.UTC().Format(DateLayout),
		"{team}", team.Name,
	)
	return r.Replace(template)
}

// HasPlaceholders reports whether s still contains a recognized placeholder.
func HasPlaceholders(s string) bool {
	return strings.Contains(s, "{rival}") || strings.Contains(s, "{date}") || strings.Contains(s, "{team}")
}
