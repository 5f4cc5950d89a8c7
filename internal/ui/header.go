package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dex/internal/catalog"
)

// renderHeader renders the status bar: logo, connectivity, catalog size,
// page position and the time of the last successful load.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot

	parts := []string{bg.Render("dex", styles.Logo)}

	switch {
	case snap.ForcedOffline:
		parts = append(parts, bg.Render("● OFFLINE (forced)", styles.WarningText.Bold(true)))
	case snap.Online:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	default:
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	}

	if snap.CatalogSize > 0 {
		parts = append(parts,
			bg.Render("Catalog:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", snap.CatalogSize), styles.Text))
	}

	if snap.CurrentPage > 0 {
		total := "?"
		if snap.TotalPages > 0 {
			total = fmt.Sprintf("%d", snap.TotalPages)
		}
		parts = append(parts,
			bg.Render("Page:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d/%s", snap.CurrentPage, total), styles.Text))
	}

	if snap.OfflineCount > 0 {
		parts = append(parts,
			bg.Render("Cached:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", snap.OfflineCount), styles.InfoText))
	}

	if snap.Loading {
		parts = append(parts, bg.Render("Loading…", styles.AccentText))
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(styles.Header.Render(bg.Join(parts, "  ")))
}

// renderBanner shows the offline or degraded notice, or nothing.
func (m Model) renderBanner() string {
	snap := m.snapshot
	var text string
	switch {
	case snap.ShowErrorScreen():
		return ""
	case snap.Degraded && snap.Error != "":
		text = snap.Error
	case snap.IsOffline():
		text = catalog.MessageDegraded
		if snap.OfflineCount == 0 {
			text = "Offline: no cached data yet"
		}
	default:
		return ""
	}

	style := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Warning)).
		Foreground(lipgloss.Color(m.theme.Background)).
		Bold(true).
		Padding(0, 1).
		Width(m.width)
	return style.Render(truncate(text, max(m.width-2, 0)))
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.mode == inputSearch:
		commands = []cmd{{"enter", "Keep"}, {"esc", "Clear"}}
	case m.mode == inputJump:
		commands = []cmd{{"enter", "Go"}, {"esc", "Cancel"}}
	case m.snapshot.ShowErrorScreen():
		commands = []cmd{{"r", "Retry"}, {"o", offlineLabel(m.snapshot.ForcedOffline)}, {"L", "Log"}, {"?", "More"}}
	case m.snapshot.SearchActive:
		commands = []cmd{{"j/k", "Navigate"}, {"/", "Edit"}, {"esc", "Clear"}, {"L", "Log"}, {"?", "More"}}
	default:
		commands = []cmd{
			{"←/→", "Page"},
			{"</>", "First/Last"},
			{":N", "Jump"},
			{"/", "Search"},
			{"j/k", "Navigate"},
			{"o", offlineLabel(m.snapshot.ForcedOffline)},
			{"L", "Log"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

func offlineLabel(forced bool) string {
	if forced {
		return "Go online"
	}
	return "Go offline"
}

// formatTimestamp formats the last update time with a relative indicator.
func (m Model) formatTimestamp() string {
	last := m.snapshot.LastUpdated
	if last.IsZero() {
		return ""
	}

	now := m.now
	if now.IsZero() {
		now = time.Now()
	}
	since := now.Sub(last)
	timeStr := last.Format("15:04:05")

	switch {
	case since < time.Minute:
		timeStr += " (now)"
	case since < time.Hour:
		timeStr += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		timeStr += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}

	return timeStr
}

// truncate truncates a string to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateMiddle truncates a string in the middle, preserving start and end.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 5 {
		return s[:max]
	}
	// Keep more of the end (file name) than the start
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return s[:startLen] + "..." + s[len(s)-endLen:]
}
