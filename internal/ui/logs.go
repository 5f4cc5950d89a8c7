package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dex/internal/logtail"
)

// logTailLines bounds how much of the log file the overlay keeps.
const logTailLines = 500

type logLinesMsg []string

type logErrorMsg struct{ err error }

// readLogsCmd reads the tail of the application log off the UI goroutine.
func readLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		if err != nil {
			return logErrorMsg{err: err}
		}
		return logLinesMsg(lines)
	}
}

// resizeLogViewport fits the viewport inside the overlay box.
func (m *Model) resizeLogViewport() {
	w, h := max(m.width-4, 10), max(m.height-4, 3)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(w, h)
	}
	m.logViewport.Width = w
	m.logViewport.Height = h
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
}

// setLogLines replaces the overlay content, following the tail when the
// view was already at the bottom.
func (m *Model) setLogLines(lines []string) {
	follow := m.logViewport.AtBottom() || len(m.logLines) == 0
	m.logLines = lines
	m.logViewport.SetContent(m.renderLogContent())
	if follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent colours each parsed line by level.
func (m Model) renderLogContent() string {
	if len(m.logLines) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Render("Log is empty.")
	}

	width := max(m.logViewport.Width, 10)
	out := make([]string, 0, len(m.logLines))
	for _, raw := range m.logLines {
		entry := logtail.Parse(raw)
		out = append(out, m.levelStyle(entry.Level).Render(truncate(entry.Format(), width)))
	}
	return strings.Join(out, "\n")
}

func (m Model) levelStyle(level string) lipgloss.Style {
	styles := m.theme.Styles()
	switch level {
	case "ERROR":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	case "INFO":
		return styles.Text
	default:
		return styles.MutedText
	}
}

// handleLogsKey scrolls the overlay; esc, L or q close it.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Logs), msg.String() == "q":
		m.showLogs = false
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// renderLogs renders the log overlay.
func (m Model) renderLogs() string {
	title := "Log"
	if m.logFile != "" {
		title = "Log " + truncateMiddle(m.logFile, max(m.width-16, 10))
	}
	content := m.logViewport.View()
	box := m.renderTitledBox(title, content, m.width, m.height-1, true)

	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	hint := bg.Render("j/k", styles.AccentText) + bg.Sep(":") + bg.Render("Scroll", styles.MutedText) +
		bg.Spaces(2) + bg.Render("g/G", styles.AccentText) + bg.Sep(":") + bg.Render("Top/Bottom", styles.MutedText) +
		bg.Spaces(2) + bg.Render("esc", styles.AccentText) + bg.Sep(":") + bg.Render("Close", styles.MutedText)

	return box + "\n" + styles.Header.Width(m.width).Render(hint)
}
