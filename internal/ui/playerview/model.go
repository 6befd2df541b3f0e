// Package playerview is the terminal screen for listening to one book.
package playerview

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/controller"
	"github.com/llehouerou/folio/internal/errmsg"
	"github.com/llehouerou/folio/internal/feed"
	"github.com/llehouerou/folio/internal/notify"
	"github.com/llehouerou/folio/internal/playback"
)

// Session is the part of controller.Session the view drives.
type Session interface {
	Open(ctx context.Context) error
	Book() catalog.Audiobook
	Tracks() []feed.Track
	Snapshot() controller.Snapshot
	Updates() <-chan controller.Snapshot
	Toggle() error
	SkipForward() error
	SkipBack() error
	Seek(pos time.Duration) error
	Next() error
	Previous() error
	JumpTo(index int) error
}

var _ Session = (*controller.Session)(nil)

type (
	openedMsg   struct{ tracks []feed.Track }
	snapshotMsg controller.Snapshot
	closedMsg   struct{}
	notifiedMsg uint32
	errMsg      struct {
		op  errmsg.Op
		err error
	}
)

const listMargin = 2

// Model renders a session and maps keys to session commands. Commands run
// as tea.Cmds since loading a section can take a while.
type Model struct {
	session Session
	book    catalog.Audiobook
	tracks  []feed.Track
	snap    controller.Snapshot
	opened  bool

	keys     keyMap
	help     help.Model
	progress progress.Model
	spinner  spinner.Model
	input    textinput.Model
	seeking  bool
	cursor   sectionCursor

	notifier  notify.Notifier
	timeout   int32
	announced int // track index of the last section notification, -1 for none
	finished  bool
	noticeID  uint32

	status string
	width  int
	height int
}

// New creates the view for session. Init opens the session.
func New(session Session) Model {
	input := textinput.New()
	input.Placeholder = "1:23:45"
	input.Prompt = "Go to: "
	input.CharLimit = 12

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.accent

	return Model{
		session:   session,
		book:      session.Book(),
		snap:      session.Snapshot(),
		keys:      newKeyMap(),
		help:      help.New(),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:   sp,
		input:     input,
		cursor:    sectionCursor{margin: listMargin},
		notifier:  notify.Discard(),
		announced: -1,
		width:     80,
		height:    24,
	}
}

// WithNotifier sends a desktop notification when a section starts playing
// and when the book ends. timeout is in milliseconds.
func (m Model) WithNotifier(n notify.Notifier, timeout int) Model {
	m.notifier = n
	m.timeout = int32(timeout)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.open(), m.waitForSnapshot(), m.spinner.Tick)
}

func (m Model) open() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Open(context.Background()); err != nil {
			return errMsg{op: errmsg.OpPlaybackOpen, err: err}
		}
		return openedMsg{tracks: m.session.Tracks()}
	}
}

func (m Model) waitForSnapshot() tea.Cmd {
	updates := m.session.Updates()
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) run(op errmsg.Op, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{op: op, err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.cursor.ensureVisible(len(m.tracks), m.listHeight())
		return m, nil

	case openedMsg:
		m.opened = true
		m.tracks = msg.tracks
		m.snap = m.session.Snapshot()
		m.keys.follow(m.snap)
		m.cursor.jump(m.snap.TrackIndex, len(m.tracks), m.listHeight())
		return m, nil

	case snapshotMsg:
		prev := m.snap.TrackIndex
		m.snap = controller.Snapshot(msg)
		m.keys.follow(m.snap)
		if m.snap.TrackIndex != prev {
			m.cursor.jump(m.snap.TrackIndex, len(m.tracks), m.listHeight())
		}
		if m.snap.LastError != nil {
			m.status = errmsg.Format(errmsg.OpPlaybackTrack, m.snap.LastError)
		}
		var cmd tea.Cmd
		m, cmd = m.announce()
		return m, tea.Batch(m.waitForSnapshot(), cmd)

	case notifiedMsg:
		if msg != 0 {
			m.noticeID = uint32(msg)
		}
		return m, nil

	case closedMsg:
		return m, m.quit()

	case errMsg:
		m.status = errmsg.Format(msg.op, msg.err)
		if msg.op == errmsg.OpPlaybackOpen && !errors.Is(msg.err, controller.ErrSessionClosed) {
			m.snap = m.session.Snapshot()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.seeking {
			return m.updateSeekPrompt(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if !m.opened {
		return m, nil
	}
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.toggle):
		op := errmsg.OpPlaybackStart
		if m.snap.State == playback.StatePlaying {
			op = errmsg.OpPlaybackPause
		}
		return m, m.run(op, s.Toggle)
	case key.Matches(msg, m.keys.skipForward):
		return m, m.run(errmsg.OpPlaybackSeek, s.SkipForward)
	case key.Matches(msg, m.keys.skipBack):
		return m, m.run(errmsg.OpPlaybackSeek, s.SkipBack)
	case key.Matches(msg, m.keys.next):
		return m, m.run(errmsg.OpPlaybackTrack, s.Next)
	case key.Matches(msg, m.keys.previous):
		return m, m.run(errmsg.OpPlaybackTrack, s.Previous)
	case key.Matches(msg, m.keys.up):
		m.cursor.move(-1, len(m.tracks), m.listHeight())
	case key.Matches(msg, m.keys.down):
		m.cursor.move(1, len(m.tracks), m.listHeight())
	case key.Matches(msg, m.keys.top):
		m.cursor.jump(0, len(m.tracks), m.listHeight())
	case key.Matches(msg, m.keys.bottom):
		m.cursor.jump(len(m.tracks)-1, len(m.tracks), m.listHeight())
	case key.Matches(msg, m.keys.jump):
		index := m.cursor.pos
		return m, m.run(errmsg.OpPlaybackTrack, func() error { return s.JumpTo(index) })
	case key.Matches(msg, m.keys.seekTo):
		m.seeking = true
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd
	}
	return m, nil
}

// announce returns a command sending the notification the snapshot calls
// for, if any.
func (m Model) announce() (Model, tea.Cmd) {
	if !m.opened {
		return m, nil
	}
	var n notify.Notification
	switch {
	case m.snap.State == playback.StatePlaying && m.snap.TrackIndex != m.announced:
		m.announced = m.snap.TrackIndex
		m.finished = false
		n = notify.SectionStarted(m.book, m.snap.Track, m.snap.TrackCount, m.timeout, m.noticeID)
	case m.snap.State == playback.StateFinished && !m.snap.HasNext() && !m.finished:
		m.finished = true
		m.announced = -1
		n = notify.BookFinished(m.book, m.timeout, m.noticeID)
	default:
		return m, nil
	}
	notifier := m.notifier
	return m, func() tea.Msg {
		id, err := notifier.Notify(n)
		if err != nil {
			return nil
		}
		return notifiedMsg(id)
	}
}

// quit dismisses the section notification, which is stale once the player is
// gone, and exits. The book finished notification stays.
func (m Model) quit() tea.Cmd {
	if m.noticeID == 0 || m.finished {
		return tea.Quit
	}
	notifier, id := m.notifier, m.noticeID
	return func() tea.Msg {
		_ = notifier.Close(id)
		return tea.Quit()
	}
}

func (m Model) updateSeekPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.seeking = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.confirm):
		m.seeking = false
		m.input.Blur()
		pos, err := parseClock(m.input.Value())
		if err != nil {
			m.status = errmsg.Format(errmsg.OpPlaybackSeek, err)
			return m, nil
		}
		return m, m.run(errmsg.OpPlaybackSeek, func() error { return m.session.Seek(pos) })
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
