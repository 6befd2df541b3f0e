package playerview

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#a78bfa")
	colorBase   = lipgloss.Color("#c0c0c0")
	colorMuted  = lipgloss.Color("#808080")
	colorSubtle = lipgloss.Color("#585858")
	colorCursor = lipgloss.Color("#303030")
	colorError  = lipgloss.Color("#ff5555")
	colorWarn   = lipgloss.Color("#f1a208")
)

var theme = struct {
	title, author, meta, section, current, cursor, accent, err, warn lipgloss.Style
	panel                                                            lipgloss.Style
}{
	title:   lipgloss.NewStyle().Foreground(colorBase).Bold(true),
	author:  lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
	meta:    lipgloss.NewStyle().Foreground(colorSubtle),
	section: lipgloss.NewStyle().Foreground(colorBase),
	current: lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
	cursor:  lipgloss.NewStyle().Background(colorCursor).Foreground(colorBase),
	accent:  lipgloss.NewStyle().Foreground(colorAccent),
	err:     lipgloss.NewStyle().Foreground(colorError),
	warn:    lipgloss.NewStyle().Foreground(colorWarn),
	panel: lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(0, 1),
}
