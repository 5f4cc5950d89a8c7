package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// streamEvents sends the current state, then one "state" event per store
// change until the client disconnects. Bursts of changes are coalesced.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody("streaming not supported"))
		return
	}

	changes, release := s.store.Subscribe()
	defer release()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := s.writeState(w); err != nil {
		return
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			if err := s.writeState(w); err != nil {
				s.logger.Debug("event stream closed", slog.String("error", err.Error()))
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeState(w http.ResponseWriter) error {
	data, err := json.Marshal(viewOf(s.store.Snapshot()))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
