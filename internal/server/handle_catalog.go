package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/templates"
)

func handleListTeams() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, clasico.Teams())
	}
}

func handleTeamRewards(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, err := clasico.ParseTeam(chi.URLParam(r, "team"))
		if err != nil {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		triple, _ := templates.TeamRewards(clasico.NewContext(team), app.Now())
		writeJSON(w, http.StatusOK, triple)
	}
}

func handleListArchetypes(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team := clasico.TeamID(r.URL.Query().Get("team"))
		writeJSON(w, http.StatusOK, app.Catalog.Archetypes(r.Context(), team))
	}
}

func handleGetArchetype(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := app.Catalog.Archetype(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, clasico.ErrUnknownArchetype) {
			writeError(w, http.StatusNotFound, "archetype not found")
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleListRoutes(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, app.Catalog.Routes(r.Context()))
	}
}

func handleGetRoute(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route, ok := lookupRoute(w, r, app)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, route)
	}
}

// lookupRoute resolves the {id} URL parameter. It writes the 404 itself.
func lookupRoute(w http.ResponseWriter, r *http.Request, app App) (clasico.Route, bool) {
	id, err := clasico.ParseRoute(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "route not found")
		return clasico.Route{}, false
	}
	route, err := app.Catalog.Route(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "route not found")
		return clasico.Route{}, false
	}
	return route, true
}

// handleListChallenges lists templates. Without archetype and route it lists
// the team-level templates.
func handleListChallenges(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := clasico.ChallengeFilter{
			Team:        clasico.TeamID(q.Get("team")),
			ArchetypeID: q.Get("archetype"),
			RouteID:     clasico.RouteID(q.Get("route")),
			Mode:        clasico.Mode(q.Get("mode")),
		}
		f.TeamLevel = f.ArchetypeID == "" && f.RouteID == ""
		if f.Mode != "" {
			if _, err := clasico.ParseMode(string(f.Mode)); err != nil {
				writeDomainError(w, err)
				return
			}
		}
		cs := app.Catalog.Challenges(r.Context(), f)
		if cs == nil {
			cs = []clasico.Challenge{}
		}
		writeJSON(w, http.StatusOK, cs)
	}
}
