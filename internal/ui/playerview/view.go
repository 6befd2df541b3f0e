package playerview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/folio/internal/controller"
	"github.com/llehouerou/folio/internal/playback"
)

const (
	headerRows = 3 // title, author line, blank
	playerRows = 6 // bordered panel with three content rows + status
	minList    = 3
)

func (m Model) listHeight() int {
	return max(m.height-headerRows-playerRows-m.helpHeight(), minList)
}

func (m Model) helpHeight() int {
	if m.help.ShowAll {
		return 5
	}
	return 1
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSections())
	b.WriteString("\n")
	b.WriteString(m.renderPlayer())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(theme.err.Render(truncate(m.status, m.width)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	title := theme.title.Render(truncate(m.book.Title, m.width))

	var parts []string
	if names := m.book.AuthorNames(); names != "" {
		parts = append(parts, theme.author.Render(names))
	}
	if n := len(m.tracks); n > 0 {
		parts = append(parts, theme.meta.Render(fmt.Sprintf("%d sections", n)))
	} else if m.book.NumSections > 0 {
		parts = append(parts, theme.meta.Render(fmt.Sprintf("%d sections", m.book.NumSections)))
	}
	if m.book.TotalTime != "" {
		parts = append(parts, theme.meta.Render(m.book.TotalTime))
	}
	return title + "\n" + strings.Join(parts, theme.meta.Render(" · ")) + "\n"
}

func (m Model) renderSections() string {
	height := m.listHeight()
	if !m.opened {
		msg := m.spinner.View() + " Loading sections…"
		if m.snap.LastError != nil || m.status != "" {
			msg = theme.warn.Render("Sections unavailable")
		}
		return msg + strings.Repeat("\n", height-1)
	}

	start, end := m.cursor.visible(len(m.tracks), height)
	lines := make([]string, 0, height)
	numWidth := len(fmt.Sprint(len(m.tracks)))
	for i := start; i < end; i++ {
		t := m.tracks[i]
		marker := "  "
		style := theme.section
		if i == m.snap.TrackIndex {
			marker = "♪ "
			style = theme.current
		}
		row := fmt.Sprintf("%s%*d  %s", marker, numWidth, i+1, t.Title)
		row = fit(row, max(m.width, 1))
		if i == m.cursor.pos {
			style = style.Inherit(theme.cursor)
		}
		lines = append(lines, style.Render(row))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPlayer() string {
	inner := max(m.width-4, 10)
	snap := m.snap

	status := stateSymbol(snap.State)
	if snap.Buffering || snap.State == playback.StateLoading {
		status = m.spinner.View()
	}

	title := "—"
	if snap.TrackCount > 0 {
		title = fmt.Sprintf("Section %d/%d · %s", snap.TrackIndex+1, snap.TrackCount, snap.Track.Title)
	}

	clock := fmt.Sprintf("%s / %s", formatClock(snap.Position), formatClock(snap.Duration))
	barWidth := max(inner-lipgloss.Width(clock)-lipgloss.Width(status)-4, 5)
	bar := m.progress
	bar.Width = barWidth
	var ratio float64
	if snap.Duration > 0 {
		ratio = float64(snap.Position) / float64(snap.Duration)
	}

	lines := []string{
		theme.title.Render(truncate(title, inner)),
		status + "  " + bar.ViewAs(min(max(ratio, 0), 1)) + "  " + theme.meta.Render(clock),
		theme.meta.Render(stateLabel(snap)),
	}
	if m.seeking {
		lines[2] = m.input.View()
	}
	return theme.panel.Width(max(m.width-2, 12)).Render(strings.Join(lines, "\n"))
}

func stateSymbol(s playback.State) string {
	switch s {
	case playback.StatePlaying:
		return "▶"
	case playback.StatePaused, playback.StateReady:
		return "⏸"
	case playback.StateFinished:
		return "■"
	default:
		return "·"
	}
}

func stateLabel(snap controller.Snapshot) string {
	switch {
	case snap.Buffering:
		return "Buffering…"
	case snap.State == playback.StateFinished && snap.TrackIndex+1 >= snap.TrackCount:
		return "Finished"
	default:
		return snap.State.String()
	}
}
