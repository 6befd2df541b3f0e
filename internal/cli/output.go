package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/progress"
)

var (
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a78bfa"))
	titleStyle = lipgloss.NewStyle().Bold(true)
	metaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#42b883"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e5c07b"))
)

func printBooks(w io.Writer, books []catalog.Audiobook) {
	if len(books) == 0 {
		fmt.Fprintln(w, metaStyle.Render("No books found."))
		return
	}
	for _, b := range books {
		fmt.Fprintf(w, "%s  %s\n", idStyle.Render(fmt.Sprintf("%6s", b.ID)), titleStyle.Render(b.Title))
		if meta := bookMeta(b); meta != "" {
			fmt.Fprintf(w, "        %s\n", metaStyle.Render(meta))
		}
	}
}

func bookMeta(b catalog.Audiobook) string {
	var parts []string
	if names := b.AuthorNames(); names != "" {
		parts = append(parts, names)
	}
	if b.NumSections > 0 {
		parts = append(parts, fmt.Sprintf("%d sections", b.NumSections))
	}
	if d := b.TotalDuration(); d > 0 {
		parts = append(parts, clock(d))
	} else if b.TotalTime != "" {
		parts = append(parts, b.TotalTime)
	}
	if b.Language != "" {
		parts = append(parts, b.Language)
	}
	return strings.Join(parts, " · ")
}

// printLibrary lists books; missing counts the downloaded sections of each
// book whose file is gone.
func printLibrary(w io.Writer, books []progress.SavedBook, missing map[string]int, now time.Time) {
	if len(books) == 0 {
		fmt.Fprintln(w, metaStyle.Render("Your library is empty. Add books with `folio library save <id>`."))
		return
	}
	for _, b := range books {
		fmt.Fprintf(w, "%s  %s\n", idStyle.Render(fmt.Sprintf("%6s", b.ID)), titleStyle.Render(b.Title))
		fmt.Fprintf(w, "        %s\n", metaStyle.Render(progressLine(b.PlaybackState, now)))
		if n := missing[b.ID]; n > 0 {
			fmt.Fprintf(w, "        %s\n", warnStyle.Render(fmt.Sprintf(
				"%d downloaded %s missing, run `folio download %s` to fetch again", n, plural(n, "section"), b.ID)))
		}
	}
}

func progressLine(state *progress.PlaybackState, now time.Time) string {
	if state == nil {
		return "not started"
	}
	line := fmt.Sprintf("section %d at %s", state.TrackIndex+1, clock(state.Position))
	if !state.LastPlayedAt.IsZero() {
		line += ", " + humanize.RelTime(state.LastPlayedAt, now, "ago", "from now")
	}
	return line
}

func clock(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
