package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, app App) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Clásico Regio API", "/openapi.json", "/docs"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/teams", handleListTeams())
		r.Get("/teams/{team}/rewards", handleTeamRewards(app))

		r.Get("/archetypes", handleListArchetypes(app))
		r.Get("/archetypes/{id}", handleGetArchetype(app))

		r.Get("/routes", handleListRoutes(app))
		r.Get("/routes/{id}", handleGetRoute(app))
		r.Post("/routes/{id}/spin", handleSpin(app))
		r.Post("/routes/{id}/quiz", handleQuiz(app))

		r.Get("/challenges", handleListChallenges(app))
		r.Post("/challenges/generate", handleGenerateChallenge(logger, app))

		r.Post("/completions", handleComplete(app))
		r.Get("/events", handleEvents(logger, app.Bus))

		r.Get("/users/{userID}/completions", handleUserCompletions(app))
		r.Get("/users/{userID}/rewards", handleUserRewards(app))
		r.Get("/users/{userID}/archetypes", handleUserArchetypes(app))
		r.Post("/rewards/{id}/claim", handleClaimReward(app))

		r.Post("/links", handleBuildLink(app))
		r.Get("/links/context", handleLinkContext())

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminKeyMiddleware(app.AdminKeyHash))
			r.Put("/challenges/{id}", handleAdminPutChallenge(app))
			r.Post("/seed", handleAdminSeed(app))
		})
	})

	if app.WebDir != "" {
		if info, err := os.Stat(app.WebDir); err == nil && info.IsDir() {
			logger.Info("serving web client", "dir", app.WebDir)
			r.NotFound(handleWebClient(app.WebDir))
		}
	}
}
