package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brinda/clasico/internal/catalog"
	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/records"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP statuses. Anything unrecognized is a
// server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, clasico.ErrUnknownTeam),
		errors.Is(err, clasico.ErrUnknownMode),
		errors.Is(err, clasico.ErrUnknownRoute),
		errors.Is(err, clasico.ErrUnknownArchetype),
		errors.Is(err, clasico.ErrUnknownMediaType),
		errors.Is(err, clasico.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, records.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrReadOnly):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
}
