// Package pokeapitest serves a small in-memory catalog over HTTP with the
// same list and detail shapes as the real API, for tests of the layers above
// the client.
package pokeapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/five82/dex/internal/pokeapi"
)

// Server is a fake catalog. Detail URLs point back at the server.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	names   []string
	failing atomic.Bool
	lists   atomic.Int64
}

// NewServer starts a server listing names in order; IDs are 1-based
// positions. It is closed when the test ends.
func NewServer(t testing.TB, names ...string) *Server {
	t.Helper()
	s := &Server{names: append([]string(nil), names...)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/pokemon", s.handleList)
	mux.HandleFunc("GET /api/v2/pokemon/{id}", s.handleDetail)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the list endpoint to hand to pokeapi.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + "/api/v2/pokemon"
}

// SetFailing makes every request answer 503 until reset.
func (s *Server) SetFailing(fail bool) {
	s.failing.Store(fail)
}

// ListCalls counts list requests served so far, including failed ones.
func (s *Server) ListCalls() int {
	return int(s.lists.Load())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.lists.Add(1)
	if s.failing.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	s.mu.Lock()
	total := len(s.names)
	start := min(max(offset, 0), total)
	end := min(start+max(limit, 0), total)
	page := pokeapi.ListPage{Count: total}
	for i := start; i < end; i++ {
		page.Results = append(page.Results, pokeapi.Summary{
			Name: s.names[i],
			URL:  s.BaseURL() + "/" + strconv.Itoa(i+1),
		})
	}
	s.mu.Unlock()

	writeJSON(w, page)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	if s.failing.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || id < 1 || id > len(s.names) {
		http.NotFound(w, r)
		return
	}
	name := s.names[id-1]
	writeJSON(w, pokeapi.Record{
		ID:   id,
		Name: name,
		Sprites: pokeapi.Sprites{
			FrontDefault: "https://img.example/" + name + ".png",
		},
		Types:  []pokeapi.TypeSlot{{Slot: 1, Type: pokeapi.NamedLinkRef{Name: "normal"}}},
		Height: 7,
		Weight: 69,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
