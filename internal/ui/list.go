package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/dex/internal/catalog"
	"github.com/five82/dex/internal/pagination"
	"github.com/five82/dex/internal/pokeapi"
)

const emptyTip = "No Pokémon match. Tip: only base forms are shown."

// renderInputLine shows the search or jump field, or the active query.
func (m Model) renderInputLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	var content string
	switch m.mode {
	case inputSearch:
		content = m.searchInput.View()
	case inputJump:
		content = m.jumpInput.View()
	default:
		if q := m.snapshot.Query; q != "" {
			content = bg.Render("/"+q, styles.AccentText)
			if m.snapshot.SearchLoading {
				content += bg.Spaces(2) + bg.Render("searching…", styles.MutedText)
			}
		} else {
			content = bg.Render("Press / to search by name", styles.FaintText)
		}
	}
	return bg.FillLine(" "+content, m.width)
}

// renderBrowse lays out the result list and the detail pane side by side.
func (m Model) renderBrowse(height int) string {
	listWidth := m.width / 2
	if m.width < 80 {
		listWidth = m.width
	}
	detailWidth := m.width - listWidth

	title := "Pokémon"
	if m.snapshot.SearchActive {
		title = fmt.Sprintf("Search: %s", truncate(m.snapshot.Query, 20))
	}

	listPane := m.renderTitledBox(title, m.renderList(listWidth-4, height-2), listWidth, height, true)
	if detailWidth < 20 {
		return listPane
	}

	var detail string
	if rec, ok := m.selectedRecord(); ok {
		detail = m.renderDetail(rec, detailWidth-4)
	} else {
		detail = lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.Muted)).
			Background(lipgloss.Color(m.theme.SurfaceAlt)).
			Render("Select a Pokémon")
	}
	detailPane := m.renderTitledBox("Details", detail, detailWidth, height, false)

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// selectedRecord returns the highlighted record, if any.
func (m Model) selectedRecord() (pokeapi.Record, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.snapshot.Displayed) {
		return pokeapi.Record{}, false
	}
	return m.snapshot.Displayed[m.selectedRow], true
}

// renderList renders the visible rows, scrolled so the selection stays in view.
func (m Model) renderList(width, rows int) string {
	records := m.snapshot.Displayed
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.FocusBg)

	if len(records) == 0 {
		switch {
		case m.snapshot.Loading || m.snapshot.SearchLoading:
			return bg.Render("Loading…", styles.AccentText)
		case m.snapshot.SearchActive:
			return bg.Render(emptyTip, styles.MutedText)
		default:
			return bg.Render("Nothing to show on this page.", styles.MutedText)
		}
	}

	rows = max(rows, 1)
	start := 0
	if m.selectedRow >= rows {
		start = m.selectedRow - rows + 1
	}
	end := min(start+rows, len(records))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		selected := i == m.selectedRow
		rowBg := m.theme.FocusBg
		if selected {
			rowBg = m.theme.SelectionBg
		}
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(m.formatRow(records[i], width, rowBg, selected)))
	}
	return strings.Join(lines, "\n")
}

// formatRow formats "#025 Pikachu · electric".
func (m Model) formatRow(rec pokeapi.Record, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	id := rec.DisplayID()
	name := rec.DisplayName()
	kinds := strings.Join(rec.Categories(), "/")
	nameWidth := max(width-len(id)-len(kinds)-5, 8)

	idStyle, nameStyle, sepStyle := styles.MutedText, styles.Text, styles.FaintText
	kindStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted))
	if cats := rec.Categories(); len(cats) > 0 {
		kindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TypeColor(cats[0])))
	}
	if selected {
		selText := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		idStyle, nameStyle, sepStyle, kindStyle = selText, selText.Bold(true), selText, selText
	}

	row := bg.Render(id, idStyle) + bg.Space() + bg.Render(truncate(name, nameWidth), nameStyle)
	if kinds != "" {
		row += bg.Render(" · ", sepStyle) + bg.Render(kinds, kindStyle)
	}
	return row
}

// renderDetail renders the selected record's fields.
func (m Model) renderDetail(rec pokeapi.Record, width int) string {
	bgColor := m.theme.SurfaceAlt
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	label := func(s string) string {
		return bg.Render(fmt.Sprintf("%-8s", s), styles.MutedText)
	}

	var lines []string
	lines = append(lines,
		bg.Render(rec.DisplayID(), styles.AccentText)+bg.Space()+
			bg.Render(rec.DisplayName(), styles.Text.Bold(true)))
	lines = append(lines, "")

	if cats := rec.Categories(); len(cats) > 0 {
		badges := make([]string, 0, len(cats))
		for _, c := range cats {
			badges = append(badges, styles.TypeBadge(c).Render(c))
		}
		lines = append(lines, label("Types")+strings.Join(badges, bg.Space()))
	} else {
		lines = append(lines, label("Types")+bg.Render("unknown", styles.FaintText))
	}

	if rec.Height > 0 {
		lines = append(lines, label("Height")+bg.Render(fmt.Sprintf("%.1f m", float64(rec.Height)/10), styles.Text))
	}
	if rec.Weight > 0 {
		lines = append(lines, label("Weight")+bg.Render(fmt.Sprintf("%.1f kg", float64(rec.Weight)/10), styles.Text))
	}
	if rec.BaseExperience > 0 {
		lines = append(lines, label("Base XP")+bg.Render(fmt.Sprintf("%d", rec.BaseExperience), styles.Text))
	}

	urlWidth := max(width-8, 10)
	lines = append(lines, "")
	if art := rec.Sprites.Other.OfficialArtwork.FrontDefault; art != "" {
		lines = append(lines, label("Artwork")+bg.Render(truncateMiddle(art, urlWidth), styles.InfoText))
	}
	if sprite := rec.Sprites.FrontDefault; sprite != "" {
		lines = append(lines, label("Sprite")+bg.Render(truncateMiddle(sprite, urlWidth), styles.InfoText))
	}
	if rec.PrimarySprite() == "" {
		lines = append(lines, label("Sprite")+bg.Render("none", styles.FaintText))
	}

	return strings.Join(lines, "\n")
}

// renderFooter renders the pagination bar and the result count line.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	count := m.resultCount()
	if m.snapshot.SearchActive {
		return styles.Header.Width(m.width).Render(bg.Render(count, styles.MutedText))
	}

	bar := m.renderPager(bg, styles)
	if bar == "" {
		return styles.Header.Width(m.width).Render(bg.Render(count, styles.MutedText))
	}
	return styles.Header.Width(m.width).Render(bar + bg.Spaces(3) + bg.Render(count, styles.MutedText))
}

// resultCount describes what the list is showing.
func (m Model) resultCount() string {
	snap := m.snapshot
	n := len(snap.Displayed)
	noun := "Pokémon"
	if snap.SearchActive {
		if snap.SearchLoading {
			return "Searching…"
		}
		return fmt.Sprintf("%d %s matching %q", n, noun, snap.Query)
	}
	switch snap.Source {
	case string(catalog.SourceSnapshot):
		return fmt.Sprintf("%d %s (cached)", n, noun)
	default:
		return fmt.Sprintf("%d %s", n, noun)
	}
}

// renderPager renders: ‹ 1 … 4 5 [6] 7 8 … 52 ›
func (m Model) renderPager(bg BgStyle, styles Styles) string {
	current, total := m.snapshot.CurrentPage, m.snapshot.TotalPages
	if total <= 0 || current <= 0 {
		return ""
	}

	aff := pagination.AffordancesFor(current, total)
	parts := make([]string, 0, 12)

	prevStyle := styles.AccentText
	if current <= 1 {
		prevStyle = styles.FaintText
	}
	parts = append(parts, bg.Render("‹", prevStyle))

	if aff.First {
		parts = append(parts, bg.Render("1", styles.MutedText))
	}
	if aff.LeadingEllipsis {
		parts = append(parts, bg.Render("…", styles.FaintText))
	}
	for _, p := range pagination.Window(current, total, pagination.DefaultWindow) {
		if p == current {
			parts = append(parts, bg.Render(fmt.Sprintf("[%d]", p), styles.AccentText.Bold(true)))
			continue
		}
		parts = append(parts, bg.Render(fmt.Sprintf("%d", p), styles.Text))
	}
	if aff.TrailingEllipsis {
		parts = append(parts, bg.Render("…", styles.FaintText))
	}
	if aff.Last {
		parts = append(parts, bg.Render(fmt.Sprintf("%d", total), styles.MutedText))
	}

	nextStyle := styles.AccentText
	if current >= total {
		nextStyle = styles.FaintText
	}
	parts = append(parts, bg.Render("›", nextStyle))

	return bg.Join(parts, " ")
}

// renderErrorScreen is shown when a page failed and nothing can be displayed.
func (m Model) renderErrorScreen(height int) string {
	styles := m.theme.Styles()

	msg := m.snapshot.Error
	if msg == "" {
		msg = catalog.MessageFailed
	}

	var b strings.Builder
	b.WriteString(styles.DangerText.Render(msg))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Press "))
	b.WriteString(styles.AccentText.Render("r"))
	b.WriteString(styles.MutedText.Render(" to retry."))
	if m.snapshot.IsOffline() {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("You are offline and no cached page covers this one."))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Danger)).
		Padding(1, 3).
		Render(b.String())

	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, box)
}

// renderTitledBox renders content in a box with the title embedded in the top border:
// ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}
