package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brinda/clasico/internal/clasico"
)

// handleAdminPutChallenge stores or replaces a challenge template. The id in
// the path wins over the body.
func handleAdminPutChallenge(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ch clasico.Challenge
		if err := readJSON(r, &ch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ch.ID = chi.URLParam(r, "id")
		if err := app.Catalog.PutChallenge(r.Context(), ch); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ch)
	}
}

type SeedResponse struct {
	Written int `json:"written"`
}

func handleAdminSeed(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := app.Catalog.Seed(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SeedResponse{Written: n})
	}
}
