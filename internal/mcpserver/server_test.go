package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/five82/dex/internal/catalog"
	"github.com/five82/dex/internal/connectivity"
	"github.com/five82/dex/internal/offline"
	"github.com/five82/dex/internal/pokeapi"
	"github.com/five82/dex/internal/pokeapi/pokeapitest"
)

type testEnv struct {
	srv     *Server
	api     *pokeapitest.Server
	monitor *connectivity.Monitor
}

func newTestEnv(t *testing.T, names ...string) testEnv {
	t.Helper()
	api := pokeapitest.NewServer(t, names...)
	client, err := pokeapi.NewClient(api.BaseURL())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	snapshots, err := offline.Open(filepath.Join(t.TempDir(), "dex.db"), nil)
	if err != nil {
		t.Fatalf("offline.Open: %v", err)
	}
	t.Cleanup(func() { snapshots.Close() })

	monitor := connectivity.NewMonitor(true)
	browser := catalog.New(client, snapshots, monitor, nil, catalog.Options{PageSize: 5, CatalogSize: len(names)})
	t.Cleanup(func() {
		browser.Close()
		browser.Wait()
	})
	return testEnv{srv: New(browser, snapshots, nil), api: api, monitor: monitor}
}

func monNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("mon%03d", i+1)
	}
	return out
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "search_pokemon":
		result, err = srv.searchPokemon(ctx, req)
	case "get_page":
		result, err = srv.getPage(ctx, req)
	case "offline_snapshot":
		result, err = srv.offlineSnapshot(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decode[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return v
}

func TestToolsRegistered(t *testing.T) {
	env := newTestEnv(t, monNames(3)...)
	tools := env.srv.MCPServer().ListTools()
	for _, name := range []string{"search_pokemon", "get_page", "offline_snapshot"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestGetPage(t *testing.T) {
	env := newTestEnv(t, monNames(12)...)

	got := decode[recordsResult](t, callTool(t, env.srv, "get_page", map[string]interface{}{"page": float64(2)}))
	if got.Page != 2 || got.TotalPages != 3 || got.Source != "network" {
		t.Fatalf("result = %+v", got)
	}
	if got.Count != 5 || got.Records[0].Name != "mon006" {
		t.Fatalf("page 2 = %d records starting %q", got.Count, got.Records[0].Name)
	}
}

func TestGetPageOutOfRange(t *testing.T) {
	env := newTestEnv(t, monNames(12)...)
	r := callTool(t, env.srv, "get_page", map[string]interface{}{"page": float64(9)})
	if !r.IsError {
		t.Fatalf("expected an error for page 9, got %s", resultText(r))
	}
	r = callTool(t, env.srv, "get_page", map[string]interface{}{})
	if !r.IsError {
		t.Fatalf("expected an error without a page argument")
	}
}

func TestGetPageWithoutDataFails(t *testing.T) {
	env := newTestEnv(t, monNames(12)...)
	env.api.SetFailing(true)

	r := callTool(t, env.srv, "get_page", map[string]interface{}{"page": float64(1)})
	if !r.IsError || resultText(r) != catalog.MessageFailed {
		t.Fatalf("result = %q (error %v)", resultText(r), r.IsError)
	}
}

func TestSearchPokemon(t *testing.T) {
	env := newTestEnv(t, "bulbasaur", "ivysaur", "venusaur-mega", "charmander")

	got := decode[recordsResult](t, callTool(t, env.srv, "search_pokemon", map[string]interface{}{"query": "saur"}))
	var names []string
	for _, rec := range got.Records {
		names = append(names, rec.Name)
	}
	if strings.Join(names, ",") != "bulbasaur,ivysaur" {
		t.Fatalf("matches = %v, want base forms only", names)
	}
	if got.Degraded {
		t.Fatalf("online search should not be degraded")
	}

	r := callTool(t, env.srv, "search_pokemon", map[string]interface{}{})
	if !r.IsError {
		t.Fatalf("expected an error without a query")
	}
}

func TestOfflineSnapshotAfterPage(t *testing.T) {
	env := newTestEnv(t, monNames(12)...)

	empty := decode[snapshotResult](t, callTool(t, env.srv, "offline_snapshot", nil))
	if empty.Count != 0 || empty.UpdatedAt != nil {
		t.Fatalf("fresh snapshot = %+v", empty)
	}

	decode[recordsResult](t, callTool(t, env.srv, "get_page", map[string]interface{}{"page": float64(1)}))

	got := decode[snapshotResult](t, callTool(t, env.srv, "offline_snapshot", nil))
	if got.Count != 5 || got.Records[0].Name != "mon001" {
		t.Fatalf("snapshot = %+v", got)
	}
	if got.Encoding == "" || got.Bytes == 0 || got.UpdatedAt == nil {
		t.Fatalf("snapshot metadata missing: %+v", got)
	}
}

func TestSearchOfflineUsesSnapshot(t *testing.T) {
	env := newTestEnv(t, monNames(12)...)
	decode[recordsResult](t, callTool(t, env.srv, "get_page", map[string]interface{}{"page": float64(1)}))

	env.monitor.SetForced(true)
	before := env.api.ListCalls()

	got := decode[recordsResult](t, callTool(t, env.srv, "search_pokemon", map[string]interface{}{"query": "mon00"}))
	if got.Source != "snapshot" || got.Count != 5 {
		t.Fatalf("offline search = %+v", got)
	}
	if env.api.ListCalls() != before {
		t.Fatalf("offline search must not hit the network")
	}
}
