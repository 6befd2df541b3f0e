//go:build linux

// Package mpris exposes the listening session on the D-Bus MPRIS interface so
// media keys and desktop widgets can drive it.
package mpris

import (
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/controller"
	"github.com/llehouerou/folio/internal/playback"
)

// Bridge serves one session on the session bus.
type Bridge struct {
	server *server.Server
}

// New registers session as the folio MPRIS player and starts serving it.
func New(session Session, log *zap.Logger) *Bridge {
	b := &Bridge{
		server: server.NewServer("folio", &rootAdapter{}, &playerAdapter{session: session}),
	}
	go func() {
		if err := b.server.Listen(); err != nil {
			log.Warn("mpris listen", zap.Error(err))
		}
	}()
	return b
}

// Close releases the bus name.
func (b *Bridge) Close() error {
	return b.server.Stop()
}

type rootAdapter struct{}

func (r *rootAdapter) Raise() error            { return nil }
func (r *rootAdapter) Quit() error             { return nil }
func (r *rootAdapter) CanQuit() (bool, error)  { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }
func (r *rootAdapter) Identity() (string, error)   { return "Folio", nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https", "file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg"}, nil
}

// playerAdapter maps MPRIS player calls onto the session.
type playerAdapter struct {
	session Session
}

func (p *playerAdapter) Next() error      { return p.session.Next() }
func (p *playerAdapter) Previous() error  { return p.session.Previous() }
func (p *playerAdapter) Pause() error     { return p.session.Pause() }
func (p *playerAdapter) PlayPause() error { return p.session.Toggle() }
func (p *playerAdapter) Play() error      { return p.session.Play() }

// Stop pauses; the session keeps its track loaded until the screen closes.
func (p *playerAdapter) Stop() error { return p.session.Pause() }

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	pos := p.session.Snapshot().Position + time.Duration(offset)*time.Microsecond
	return p.session.Seek(pos)
}

// SetPosition ignores requests for a track other than the current one.
func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	if trackID != trackPath(p.session.Snapshot()) {
		return nil
	}
	return p.session.Seek(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error { return nil }

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.session.Snapshot().State), nil
}

func playbackStatus(s playback.State) types.PlaybackStatus {
	switch s {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying
	case playback.StateIdle:
		return types.PlaybackStatusStopped
	default:
		return types.PlaybackStatusPaused
	}
}

func (p *playerAdapter) Rate() (float64, error)        { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error       { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) Volume() (float64, error)      { return 1.0, nil }
func (p *playerAdapter) SetVolume(_ float64) error     { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.session.Snapshot()
	if snap.TrackCount == 0 {
		return types.Metadata{}, nil
	}
	book := p.session.Book()
	title := snap.Track.Title
	if title == "" {
		title = fmt.Sprintf("Section %d", snap.TrackIndex+1)
	}
	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(trackPath(snap)),
		Length:      types.Microseconds(snap.Duration.Microseconds()),
		Title:       title,
		Album:       book.Title,
		TrackNumber: snap.TrackIndex + 1,
		ArtUrl:      book.CoverArt,
	}
	if authors := book.AuthorNames(); authors != "" {
		meta.Artist = []string{authors}
	}
	return meta, nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.session.Snapshot().Position.Microseconds(), nil
}

func (p *playerAdapter) CanGoNext() (bool, error)     { return p.session.Snapshot().HasNext(), nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return p.session.Snapshot().HasPrevious(), nil }
func (p *playerAdapter) CanPlay() (bool, error)       { return p.session.Snapshot().State.CanPlay(), nil }
func (p *playerAdapter) CanPause() (bool, error)      { return true, nil }
func (p *playerAdapter) CanSeek() (bool, error)       { return true, nil }
func (p *playerAdapter) CanControl() (bool, error)    { return true, nil }

// trackPath is the MPRIS object path of the current section.
func trackPath(snap controller.Snapshot) string {
	id := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, snap.BookID)
	return fmt.Sprintf("/org/mpris/MediaPlayer2/folio/%s_%d", id, snap.TrackIndex)
}
