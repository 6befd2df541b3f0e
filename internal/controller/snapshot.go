package controller

import (
	"time"

	"github.com/llehouerou/folio/internal/feed"
	"github.com/llehouerou/folio/internal/playback"
)

// Snapshot is the observable state of a session.
type Snapshot struct {
	SessionID  string
	BookID     string
	BookTitle  string
	TrackIndex int
	TrackCount int
	Track      feed.Track
	State      playback.State
	Position   time.Duration
	Duration   time.Duration
	Buffering  bool
	// LastError is the most recent fetch or load failure. It is cleared by the
	// next successful load.
	LastError error
}

// HasNext reports whether a track follows the current one.
func (s Snapshot) HasNext() bool { return s.TrackIndex+1 < s.TrackCount }

// HasPrevious reports whether a track precedes the current one.
func (s Snapshot) HasPrevious() bool { return s.TrackIndex > 0 && s.TrackCount > 0 }

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Updates delivers snapshots as the session changes. Only the latest snapshot
// is buffered; a slow reader skips intermediate ones. The channel is closed by
// Close.
func (s *Session) Updates() <-chan Snapshot {
	return s.updates
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:  s.id,
		BookID:     s.book.ID,
		BookTitle:  s.book.Title,
		TrackIndex: s.index,
		TrackCount: len(s.tracks),
		State:      s.state,
		Position:   s.position,
		Duration:   s.duration,
		Buffering:  s.buffering,
		LastError:  s.lastErr,
	}
	if s.index < len(s.tracks) {
		snap.Track = s.tracks[s.index]
	}
	return snap
}

func (s *Session) publishLocked() {
	if s.closed {
		return
	}
	snap := s.snapshotLocked()
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snap:
	default:
	}
}
