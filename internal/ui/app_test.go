package ui

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/dex/internal/catalog"
	"github.com/five82/dex/internal/pokeapi"
	"github.com/five82/dex/internal/prefs"
	"github.com/five82/dex/internal/state"
)

type fakeController struct {
	calls    []string
	searches []string
	jumps    []int
}

func (f *fakeController) NextPage() bool  { f.calls = append(f.calls, "next"); return true }
func (f *fakeController) PrevPage() bool  { f.calls = append(f.calls, "prev"); return true }
func (f *fakeController) FirstPage() bool { f.calls = append(f.calls, "first"); return true }
func (f *fakeController) LastPage() bool  { f.calls = append(f.calls, "last"); return true }
func (f *fakeController) Retry()          { f.calls = append(f.calls, "retry") }
func (f *fakeController) ClearSearch()    { f.calls = append(f.calls, "clear") }

func (f *fakeController) GoToPage(n int) bool {
	f.jumps = append(f.jumps, n)
	return true
}

func (f *fakeController) SetSearch(q string) {
	f.searches = append(f.searches, q)
}

type fakeNetwork struct{ forced bool }

func (f *fakeNetwork) Forced() bool       { return f.forced }
func (f *fakeNetwork) SetForced(off bool) { f.forced = off }

func newTestModel(t *testing.T, snap state.Snapshot) (Model, *fakeController) {
	t.Helper()
	ctrl := &fakeController{}
	m := New(Options{
		Controller: ctrl,
		Network:    &fakeNetwork{},
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m.snapshot = snap
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(Model), ctrl
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func records(names ...string) []pokeapi.Record {
	out := make([]pokeapi.Record, len(names))
	for i, n := range names {
		out[i] = pokeapi.Record{
			ID:    i + 1,
			Name:  n,
			Types: []pokeapi.TypeSlot{{Slot: 1, Type: pokeapi.NamedLinkRef{Name: "grass"}}},
		}
	}
	return out
}

func browsing() state.Snapshot {
	return state.Snapshot{
		Displayed:   records("bulbasaur", "ivysaur", "venusaur"),
		Source:      string(catalog.SourceNetwork),
		CurrentPage: 6,
		TotalPages:  52,
		CatalogSize: 1025,
		Online:      true,
	}
}

func TestPageKeys(t *testing.T) {
	m, ctrl := newTestModel(t, browsing())
	press(t, m, "right", "n", "left", "p", "<", ">")

	want := []string{"next", "next", "prev", "prev", "first", "last"}
	if !reflect.DeepEqual(ctrl.calls, want) {
		t.Fatalf("calls = %v, want %v", ctrl.calls, want)
	}
}

func TestPageKeysIgnoredWhileSearching(t *testing.T) {
	snap := browsing()
	snap.Query = "saur"
	snap.SearchActive = true
	m, ctrl := newTestModel(t, snap)
	press(t, m, "n", "p", ">")

	if len(ctrl.calls) != 0 {
		t.Fatalf("calls = %v, want none while a search is active", ctrl.calls)
	}
}

func TestSearchInputDrivesController(t *testing.T) {
	m, ctrl := newTestModel(t, browsing())
	m = press(t, m, "/", "p", "i")

	if m.mode != inputSearch {
		t.Fatalf("mode = %v, want search", m.mode)
	}
	if want := []string{"p", "pi"}; !reflect.DeepEqual(ctrl.searches, want) {
		t.Fatalf("searches = %v, want %v", ctrl.searches, want)
	}

	// Page keys are typed into the field while it has focus.
	m = press(t, m, "n")
	if len(ctrl.calls) != 0 {
		t.Fatalf("calls = %v, want none while typing", ctrl.calls)
	}
	if got := m.searchInput.Value(); got != "pin" {
		t.Fatalf("input = %q, want pin", got)
	}

	m = press(t, m, "esc")
	if m.mode != inputNone || m.searchInput.Value() != "" {
		t.Fatalf("esc should leave search mode with an empty field")
	}
	if want := []string{"clear"}; !reflect.DeepEqual(ctrl.calls, want) {
		t.Fatalf("calls = %v, want %v", ctrl.calls, want)
	}
}

func TestSearchEnterKeepsQuery(t *testing.T) {
	m, ctrl := newTestModel(t, browsing())
	m = press(t, m, "/", "c", "h", "enter")

	if m.mode != inputNone {
		t.Fatalf("enter should leave search mode")
	}
	if m.snapshot.Query != "ch" {
		t.Fatalf("query = %q, want ch", m.snapshot.Query)
	}
	if len(ctrl.calls) != 0 {
		t.Fatalf("enter must not clear the search, calls = %v", ctrl.calls)
	}

	press(t, m, "esc")
	if want := []string{"clear"}; !reflect.DeepEqual(ctrl.calls, want) {
		t.Fatalf("esc outside the field should clear, calls = %v", ctrl.calls)
	}
}

func TestJumpToPage(t *testing.T) {
	m, ctrl := newTestModel(t, browsing())
	m = press(t, m, ":", "1", "2", "enter")

	if m.mode != inputNone {
		t.Fatalf("enter should leave jump mode")
	}
	if want := []int{12}; !reflect.DeepEqual(ctrl.jumps, want) {
		t.Fatalf("jumps = %v, want %v", ctrl.jumps, want)
	}
}

func TestJumpCancelledOrInvalid(t *testing.T) {
	m, ctrl := newTestModel(t, browsing())
	m = press(t, m, ":", "3", "esc")
	press(t, m, ":", "x", "enter")
	if len(ctrl.jumps) != 0 {
		t.Fatalf("jumps = %v, want none", ctrl.jumps)
	}
}

func TestRetryAndErrorScreen(t *testing.T) {
	snap := state.Snapshot{Error: catalog.MessageFailed, CurrentPage: 2, TotalPages: 52, Online: true}
	m, ctrl := newTestModel(t, snap)
	m = press(t, m, "n", "r")

	if want := []string{"retry"}; !reflect.DeepEqual(ctrl.calls, want) {
		t.Fatalf("calls = %v, want %v", ctrl.calls, want)
	}
	view := ansi.Strip(m.View())
	if !strings.Contains(view, catalog.MessageFailed) || !strings.Contains(view, "to retry") {
		t.Fatalf("error screen missing from view:\n%s", view)
	}
}

func TestToggleOffline(t *testing.T) {
	ctrl := &fakeController{}
	net := &fakeNetwork{}
	m := New(Options{Controller: ctrl, Network: net})
	m = press(t, m, "o")
	if !net.forced {
		t.Fatalf("o should force offline")
	}
	press(t, m, "o")
	if net.forced {
		t.Fatalf("second o should release")
	}
}

func TestThemeCycleSavesPrefs(t *testing.T) {
	m, _ := newTestModel(t, browsing())
	m = press(t, m, "T")

	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	got, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Theme != "Kanagawa" || got.LastPage != 6 {
		t.Fatalf("prefs = %+v, want Kanagawa page 6", got)
	}
}

func TestSelectionMovesAndResets(t *testing.T) {
	m, _ := newTestModel(t, browsing())
	m = press(t, m, "j", "j", "j")
	if m.selectedRow != 2 {
		t.Fatalf("selectedRow = %d, want 2 (clamped)", m.selectedRow)
	}
	m = press(t, m, "k")
	if m.selectedRow != 1 {
		t.Fatalf("selectedRow = %d, want 1", m.selectedRow)
	}
	m = press(t, m, "G")
	if m.selectedRow != 2 {
		t.Fatalf("G: selectedRow = %d, want 2", m.selectedRow)
	}

	next := browsing()
	next.CurrentPage = 7
	updated, _ := m.Update(changedMsg(next))
	m = updated.(Model)
	if m.selectedRow != 0 {
		t.Fatalf("new page should reset selection, got %d", m.selectedRow)
	}
}

func TestSelectionClampedWhenListShrinks(t *testing.T) {
	m, _ := newTestModel(t, browsing())
	m = press(t, m, "G")

	next := browsing()
	next.Displayed = next.Displayed[:1]
	updated, _ := m.Update(snapshotMsg(next))
	m = updated.(Model)
	if m.selectedRow != 0 {
		t.Fatalf("selectedRow = %d, want 0", m.selectedRow)
	}
}

func TestHelpOverlayClosesOnAnyKey(t *testing.T) {
	m, ctrl := newTestModel(t, browsing())
	m = press(t, m, "?")
	if !m.showHelp {
		t.Fatalf("? should open help")
	}
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "Keyboard Shortcuts") || !strings.Contains(view, "Next page") {
		t.Fatalf("help view missing bindings:\n%s", view)
	}
	m = press(t, m, "n")
	if m.showHelp || len(ctrl.calls) != 0 {
		t.Fatalf("key should only close help, calls = %v", ctrl.calls)
	}
}

func TestLogOverlay(t *testing.T) {
	m, _ := newTestModel(t, browsing())
	m = press(t, m, "L")
	if !m.showLogs {
		t.Fatalf("L should open the log overlay")
	}

	updated, _ := m.Update(logLinesMsg{
		`time=2025-10-08T21:01:05Z level=WARN msg="page fetch failed" page=3`,
	})
	m = updated.(Model)
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "WARN page fetch failed page=3") {
		t.Fatalf("log overlay missing entry:\n%s", view)
	}

	m = press(t, m, "esc")
	if m.showLogs {
		t.Fatalf("esc should close the log overlay")
	}
}

func TestWaitForChangeDeliversSnapshot(t *testing.T) {
	store := &state.Store{}
	m := New(Options{Store: store})

	cmd := waitForChangeCmd(m.ctx, m.changes, store)
	store.Update(func(s *state.Snapshot) { s.CurrentPage = 4 })

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		snap, ok := msg.(changedMsg)
		if !ok || snap.CurrentPage != 4 {
			t.Fatalf("msg = %#v, want changedMsg page 4", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}
}

func TestMainViewShowsHeaderBannerAndPager(t *testing.T) {
	snap := browsing()
	snap.Online = false
	snap.OfflineCount = 20
	snap.Source = string(catalog.SourceSnapshot)
	m, _ := newTestModel(t, snap)

	view := ansi.Strip(m.View())
	for _, want := range []string{
		"dex",
		"● OFFLINE",
		"Page: 6/52",
		catalog.MessageDegraded,
		"#001 Bulbasaur",
		"‹ 1 … 4 5 [6] 7 8 … 52 ›",
		"3 Pokémon (cached)",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestPagerHiddenWhileSearching(t *testing.T) {
	snap := browsing()
	snap.Query = "zzz"
	snap.SearchActive = true
	snap.Displayed = nil
	m, _ := newTestModel(t, snap)

	view := ansi.Strip(m.View())
	if strings.Contains(view, "‹") {
		t.Fatalf("pagination bar should be hidden during a search:\n%s", view)
	}
	if !strings.Contains(view, "only base forms are shown") {
		t.Fatalf("empty search should show the base-forms tip:\n%s", view)
	}
	if !strings.Contains(view, `0 Pokémon matching "zzz"`) {
		t.Fatalf("missing result count:\n%s", view)
	}
}
