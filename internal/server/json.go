package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/five82/dex/internal/pokeapi"
	"github.com/five82/dex/internal/state"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// stateView is the wire form of a state.Snapshot.
type stateView struct {
	Records       []pokeapi.Record `json:"records"`
	Source        string           `json:"source,omitempty"`
	Loading       bool             `json:"loading"`
	SearchLoading bool             `json:"search_loading"`
	Error         string           `json:"error,omitempty"`
	Degraded      bool             `json:"degraded"`
	Query         string           `json:"query,omitempty"`
	SearchActive  bool             `json:"search_active"`
	Page          int              `json:"page"`
	TotalPages    int              `json:"total_pages"`
	CatalogSize   int              `json:"catalog_size"`
	Online        bool             `json:"online"`
	ForcedOffline bool             `json:"forced_offline"`
	OfflineCount  int              `json:"offline_count"`
	LastUpdated   *time.Time       `json:"last_updated,omitempty"`
}

func viewOf(snap state.Snapshot) stateView {
	v := stateView{
		Records:       snap.Displayed,
		Source:        snap.Source,
		Loading:       snap.Loading,
		SearchLoading: snap.SearchLoading,
		Error:         snap.Error,
		Degraded:      snap.Degraded,
		Query:         snap.Query,
		SearchActive:  snap.SearchActive,
		Page:          snap.CurrentPage,
		TotalPages:    snap.TotalPages,
		CatalogSize:   snap.CatalogSize,
		Online:        snap.Online,
		ForcedOffline: snap.ForcedOffline,
		OfflineCount:  snap.OfflineCount,
	}
	if v.Records == nil {
		v.Records = []pokeapi.Record{}
	}
	if !snap.LastUpdated.IsZero() {
		ts := snap.LastUpdated
		v.LastUpdated = &ts
	}
	return v
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Query    string           `json:"query"`
	Source   string           `json:"source,omitempty"`
	Degraded bool             `json:"degraded"`
	Records  []pokeapi.Record `json:"records"`
}
