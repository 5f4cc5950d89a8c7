package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/dex/internal/prefs"
	"github.com/five82/dex/internal/state"
)

// Controller is the subset of the catalog browser the UI drives.
type Controller interface {
	NextPage() bool
	PrevPage() bool
	GoToPage(n int) bool
	FirstPage() bool
	LastPage() bool
	Retry()
	SetSearch(query string)
	ClearSearch()
}

// NetworkToggle pins connectivity offline on demand.
type NetworkToggle interface {
	Forced() bool
	SetForced(offline bool)
}

// inputMode tells which text field, if any, owns the keyboard.
type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputJump
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Store      *state.Store
	Network    NetworkToggle
	Tick       time.Duration
	ThemeName  string
	PrefsPath  string
	LogFile    string
	Logger     *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	controller Controller
	store      *state.Store
	network    NetworkToggle
	changes    <-chan struct{}
	prefsPath  string
	logFile    string
	tick       time.Duration
	logger     *slog.Logger
	keys       keyMap

	// UI state
	theme  Theme
	width  int
	height int
	ready  bool

	// Data state
	snapshot state.Snapshot
	now      time.Time

	// List state
	selectedRow int

	// Inputs
	mode        inputMode
	searchInput textinput.Model
	jumpInput   textinput.Model

	// Overlays
	showHelp    bool
	showLogs    bool
	logViewport viewport.Model
	logLines    []string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick == 0 {
		tick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	search := textinput.New()
	search.Placeholder = "Search Pokémon..."
	search.Prompt = "/ "
	search.CharLimit = 64

	jump := textinput.New()
	jump.Placeholder = "page"
	jump.Prompt = ": "
	jump.CharLimit = 6

	m := Model{
		ctx:         ctx,
		controller:  opts.Controller,
		store:       opts.Store,
		network:     opts.Network,
		prefsPath:   opts.PrefsPath,
		logFile:     opts.LogFile,
		tick:        tick,
		logger:      logger,
		keys:        defaultKeyMap(),
		theme:       GetTheme(themeName),
		now:         time.Now(),
		searchInput: search,
		jumpInput:   jump,
	}
	if opts.Store != nil {
		m.changes = opts.Store.Changes()
		m.snapshot = opts.Store.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.tick),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store), waitForChangeCmd(m.ctx, m.changes, m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.searchInput.Width = max(msg.Width-8, 10)
		m.resizeLogViewport()
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.showLogs {
			cmds = append(cmds, readLogsCmd(m.logFile))
		}
		return m, tea.Batch(cmds...)

	case changedMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, waitForChangeCmd(m.ctx, m.changes, m.store)

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case logLinesMsg:
		m.setLogLines(msg)
		return m, nil

	case logErrorMsg:
		m.logger.Warn("log overlay read failed", slog.String("error", msg.err.Error()))
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.showLogs {
		return m.renderLogs()
	}

	return m.renderMain()
}

// applySnapshot stores a new snapshot and resets the selection when the
// visible list changes identity (new page or new query).
func (m *Model) applySnapshot(snap state.Snapshot) {
	if snap.CurrentPage != m.snapshot.CurrentPage || snap.Query != m.snapshot.Query {
		m.selectedRow = 0
	}
	m.snapshot = snap
	if n := len(snap.Displayed); m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch m.mode {
	case inputSearch:
		return m.handleSearchKey(msg)
	case inputJump:
		return m.handleJumpKey(msg)
	}

	if m.showLogs {
		return m.handleLogsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleOffline):
		if m.network != nil {
			m.network.SetForced(!m.network.Forced())
		}
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		m.showLogs = true
		m.resizeLogViewport()
		return m, readLogsCmd(m.logFile)

	case key.Matches(msg, m.keys.Search):
		m.mode = inputSearch
		m.searchInput.SetValue(m.snapshot.Query)
		m.searchInput.CursorEnd()
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Escape):
		if m.snapshot.Query != "" {
			m.clearSearch()
		}
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		if m.controller != nil {
			m.controller.Retry()
		}
		return m, nil
	}

	if m.snapshot.ShowErrorScreen() {
		return m, nil
	}

	if !m.snapshot.SearchActive && m.controller != nil {
		switch {
		case key.Matches(msg, m.keys.NextPage):
			m.controller.NextPage()
			return m, nil
		case key.Matches(msg, m.keys.PrevPage):
			m.controller.PrevPage()
			return m, nil
		case key.Matches(msg, m.keys.FirstPage):
			m.controller.FirstPage()
			return m, nil
		case key.Matches(msg, m.keys.LastPage):
			m.controller.LastPage()
			return m, nil
		case key.Matches(msg, m.keys.Jump):
			m.mode = inputJump
			m.jumpInput.SetValue("")
			cmd := m.jumpInput.Focus()
			return m, cmd
		}
	}

	return m.handleListKey(msg)
}

// handleListKey moves the selection within the displayed records.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Displayed)
	if count == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	}
	return m, nil
}

// handleSearchKey feeds keystrokes to the search field. Every edit is handed
// to the controller, which debounces the evaluation.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = inputNone
		m.searchInput.Blur()
		m.clearSearch()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.mode = inputNone
		m.searchInput.Blur()
		return m, nil
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		m.snapshot.Query = after
		m.selectedRow = 0
		if m.controller != nil {
			m.controller.SetSearch(after)
		}
	}
	return m, cmd
}

// handleJumpKey reads a page number and jumps to it on enter.
func (m Model) handleJumpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = inputNone
		m.jumpInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.mode = inputNone
		m.jumpInput.Blur()
		if n, err := strconv.Atoi(strings.TrimSpace(m.jumpInput.Value())); err == nil && m.controller != nil {
			m.controller.GoToPage(n)
		}
		return m, nil
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.jumpInput, cmd = m.jumpInput.Update(msg)
	return m, cmd
}

func (m *Model) clearSearch() {
	m.searchInput.SetValue("")
	m.snapshot.Query = ""
	if m.controller != nil {
		m.controller.ClearSearch()
	}
}

// savePrefs persists the theme and the page being viewed.
func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	page := max(m.snapshot.CurrentPage, 1)
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, LastPage: page}); err != nil {
		m.logger.Warn("save preferences failed", slog.String("error", err.Error()))
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}

	b.WriteString(m.renderInputLine())
	b.WriteString("\n")

	if m.snapshot.ShowErrorScreen() {
		b.WriteString(m.renderErrorScreen(m.contentHeight()))
		return b.String()
	}

	b.WriteString(m.renderBrowse(m.contentHeight()))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// contentHeight is what remains for the list/detail panes after the fixed rows.
func (m Model) contentHeight() int {
	used := 4 // header, command bar, input line, footer
	if m.renderBanner() != "" {
		used++
	}
	return max(m.height-used, 5)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type changedMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitForChangeCmd blocks until the store signals a change, then delivers
// the fresh snapshot. Update re-arms it after each delivery.
func waitForChangeCmd(ctx context.Context, changes <-chan struct{}, store *state.Store) tea.Cmd {
	if changes == nil || store == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			return changedMsg(store.Snapshot())
		}
	}
}

// Run starts the Bubble Tea program and saves preferences when it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.savePrefs()
	}
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
