package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/five82/dex/internal/catalog"
	"github.com/five82/dex/internal/pokeapi"
)

const maxBodyBytes = 1 << 16

func (s *Server) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(s.store.Snapshot()))
}

// search evaluates the query immediately. A failed remote search is served
// from local data and reported only as degraded.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	out := s.browser.SearchNow(r.Context(), req.Query)
	if out.Stale {
		writeJSON(w, http.StatusConflict, errorBody("superseded by a newer search"))
		return
	}
	if out.Err != nil {
		s.logger.Warn("api search degraded",
			slog.String("query", req.Query),
			slog.String("error", out.Err.Error()))
	}

	records := out.Records
	if records == nil {
		records = []pokeapi.Record{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Query:    req.Query,
		Source:   string(out.Source),
		Degraded: out.Err != nil,
		Records:  records,
	})
}

func (s *Server) clearSearch(w http.ResponseWriter, _ *http.Request) {
	s.browser.ClearSearch()
	writeJSON(w, http.StatusOK, viewOf(s.store.Snapshot()))
}

func (s *Server) retry(w http.ResponseWriter, _ *http.Request) {
	s.browser.Retry()
	writeJSON(w, http.StatusAccepted, viewOf(s.store.Snapshot()))
}

// movePage wraps a page action. Page fetches run in the background, so a
// successful move answers 202 with the state as of the move; clients follow
// /api/events for the result.
func (s *Server) movePage(move func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !move() {
			writeJSON(w, http.StatusConflict, errorBody("no page in that direction"))
			return
		}
		writeJSON(w, http.StatusAccepted, viewOf(s.store.Snapshot()))
	}
}

func (s *Server) goToPage(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "n")
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("invalid page %q", raw)))
		return
	}
	if n == s.store.Snapshot().CurrentPage {
		writeJSON(w, http.StatusOK, viewOf(s.store.Snapshot()))
		return
	}
	if !s.browser.GoToPage(n) {
		writeJSON(w, http.StatusBadRequest, errorBody(catalog.ErrPageRange.Error()))
		return
	}
	writeJSON(w, http.StatusAccepted, viewOf(s.store.Snapshot()))
}
