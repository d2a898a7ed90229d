package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brinda/clasico/internal/gameplay"
	"github.com/brinda/clasico/internal/links"
)

func handleComplete(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gameplay.CompleteRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		res, err := app.Gameplay.Complete(r.Context(), req)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func handleUserCompletions(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, app.Gameplay.History(r.Context(), chi.URLParam(r, "userID")))
	}
}

func handleUserRewards(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, app.Rewards.UserRewards(r.Context(), chi.URLParam(r, "userID")))
	}
}

type UserArchetypesResponse struct {
	UserID     string   `json:"user_id"`
	Archetypes []string `json:"archetypes"`
}

func handleUserArchetypes(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		writeJSON(w, http.StatusOK, UserArchetypesResponse{
			UserID:     userID,
			Archetypes: app.Catalog.UserArchetypes(r.Context(), userID),
		})
	}
}

func handleClaimReward(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ir, err := app.Rewards.Claim(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ir)
	}
}

type LinkResponse struct {
	URL string `json:"url"`
}

func handleBuildLink(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p links.Params
		if err := readJSON(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		u, err := links.Build(app.LinkBaseURL, p)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, LinkResponse{URL: u})
	}
}

// handleLinkContext turns a shared link back into the session context it
// preselects.
func handleLinkContext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := r.URL.Query().Get("url")
		if link == "" {
			writeError(w, http.StatusBadRequest, "url query parameter required")
			return
		}
		p, err := links.Parse(link)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ctx, err := p.Context()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ctx)
	}
}
