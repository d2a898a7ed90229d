package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brinda/clasico/internal/bus"
)

// handleEvents streams completion events as Server-Sent Events.
func handleEvents(logger *slog.Logger, b bus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if b == nil {
			writeError(w, http.StatusServiceUnavailable, "event bus not configured")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		ch, cancel, err := b.Subscribe(r.Context(), bus.Completions)
		if err != nil {
			logger.ErrorContext(r.Context(), "subscribing to completions failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "event bus unavailable")
			return
		}
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: completion\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
