package server

import (
	"net/http"

	"github.com/brinda/clasico/internal/mechanics"
)

func handleSpin(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route, ok := lookupRoute(w, r, app)
		if !ok {
			return
		}
		spin, err := mechanics.SpinWheel(route, app.Rand)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, spin)
	}
}

type QuizRequest struct {
	Answers []string `json:"answers"`
}

type QuizResponse struct {
	mechanics.QuizResult
	Perfect bool `json:"perfect"`
}

func handleQuiz(app App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route, ok := lookupRoute(w, r, app)
		if !ok {
			return
		}
		var req QuizRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		res, err := mechanics.ScoreQuiz(route, req.Answers)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, QuizResponse{QuizResult: res, Perfect: res.Perfect()})
	}
}
