// Package mcpserver exposes the catalog to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/five82/dex/internal/catalog"
	"github.com/five82/dex/internal/offline"
	"github.com/five82/dex/internal/pokeapi"
)

// Catalog is the read side of a browsing session. *catalog.Browser satisfies it.
type Catalog interface {
	Search(ctx context.Context, query string) catalog.Outcome
	FetchPage(ctx context.Context, page int) catalog.Outcome
	LoadOffline(ctx context.Context)
	OfflineSnapshot() []pokeapi.Record
	TotalPages() int
}

// SnapshotInfo describes the durable snapshot. *offline.Store satisfies it.
type SnapshotInfo interface {
	Info(ctx context.Context) (offline.Info, error)
}

// Server wraps an MCP server with the dex tools registered.
type Server struct {
	catalog   Catalog
	snapshots SnapshotInfo
	logger    *slog.Logger
	mcp       *server.MCPServer
}

// New registers the tools. snapshots and logger may be nil.
func New(cat Catalog, snapshots SnapshotInfo, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{catalog: cat, snapshots: snapshots, logger: logger}

	s.mcp = server.NewMCPServer(
		"Dex",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_pokemon",
		mcp.WithDescription("Search base-form Pokémon by name substring. "+
			"Falls back to cached data when the API is unreachable."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Name fragment, at least two characters")),
	), s.searchPokemon)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Fetch one page of the catalog in Pokédex order, variants excluded."),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("1-based page number")),
	), s.getPage)

	s.mcp.AddTool(mcp.NewTool("offline_snapshot",
		mcp.WithDescription("Return the cached offline snapshot: the most recently viewed page in reduced form."),
	), s.offlineSnapshot)

	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server, for tests and embedding.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type recordsResult struct {
	Query      string           `json:"query,omitempty"`
	Page       int              `json:"page,omitempty"`
	TotalPages int              `json:"total_pages,omitempty"`
	Source     string           `json:"source,omitempty"`
	Degraded   bool             `json:"degraded,omitempty"`
	Count      int              `json:"count"`
	Records    []pokeapi.Record `json:"records"`
}

type snapshotResult struct {
	Records   []pokeapi.Record `json:"records"`
	Count     int              `json:"count"`
	Bytes     int              `json:"bytes,omitempty"`
	Encoding  string           `json:"encoding,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

func (s *Server) searchPokemon(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.catalog.LoadOffline(ctx)
	out := s.catalog.Search(ctx, query)
	if out.Err != nil {
		s.logger.Warn("mcp search degraded", slog.String("query", query), slog.String("error", out.Err.Error()))
	}
	return jsonResult(recordsResult{
		Query:    query,
		Source:   string(out.Source),
		Degraded: out.Err != nil,
		Count:    len(out.Records),
		Records:  nonNil(out.Records),
	})
}

func (s *Server) getPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.catalog.LoadOffline(ctx)
	out := s.catalog.FetchPage(ctx, page)
	switch {
	case errors.Is(out.Err, catalog.ErrPageRange):
		return mcp.NewToolResultError(out.Err.Error()), nil
	case out.Err != nil && !out.Degraded:
		s.logger.Warn("mcp page failed", slog.Int("page", page), slog.String("error", out.Err.Error()))
		return mcp.NewToolResultError(catalog.MessageFailed), nil
	}
	return jsonResult(recordsResult{
		Page:       page,
		TotalPages: s.catalog.TotalPages(),
		Source:     string(out.Source),
		Degraded:   out.Degraded,
		Count:      len(out.Records),
		Records:    nonNil(out.Records),
	})
}

func (s *Server) offlineSnapshot(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.catalog.LoadOffline(ctx)
	records := s.catalog.OfflineSnapshot()
	res := snapshotResult{Records: nonNil(records), Count: len(records)}
	if s.snapshots != nil {
		info, err := s.snapshots.Info(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res.Bytes = info.Bytes
		res.Encoding = info.Encoding
		if !info.UpdatedAt.IsZero() {
			ts := info.UpdatedAt
			res.UpdatedAt = &ts
		}
	}
	return jsonResult(res)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func nonNil(records []pokeapi.Record) []pokeapi.Record {
	if records == nil {
		return []pokeapi.Record{}
	}
	return records
}
