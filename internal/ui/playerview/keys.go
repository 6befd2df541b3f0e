package playerview

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/llehouerou/folio/internal/controller"
)

type keyMap struct {
	toggle, skipForward, skipBack,
	next, previous,
	up, down, top, bottom, jump,
	seekTo, confirm, cancel,
	help, quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		skipForward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "skip forward"),
		),
		skipBack: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "skip back"),
		),
		next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next section"),
		),
		previous: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous section"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first"),
		),
		bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last"),
		),
		jump: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play section"),
		),
		seekTo: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "go to time"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// follow enables section navigation only where a section exists to go to.
func (k *keyMap) follow(snap controller.Snapshot) {
	k.next.SetEnabled(snap.HasNext())
	k.previous.SetEnabled(snap.HasPrevious())
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.skipBack, k.skipForward, k.next, k.previous, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.skipBack, k.skipForward, k.seekTo},
		{k.next, k.previous, k.jump},
		{k.up, k.down, k.top, k.bottom},
		{k.help, k.quit},
	}
}
