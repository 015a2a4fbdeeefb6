package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"finura/internal/log"
)

// handleStream serves the realtime snapshot feed over SSE. The client gets
// the full current list immediately and again after every change; there are
// no diffs to reconcile. Opening a second stream for the same user closes
// the first.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	snapshots, _, err := s.hub.Subscribe(ctx, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := log.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-snapshots:
			if !open {
				// Replaced by a newer stream for this user.
				fmt.Fprint(w, "event: replaced\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			body, err := json.Marshal(snap.Transactions)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to encode snapshot", "error", err)
				return
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", body)
			flusher.Flush()
		}
	}
}
