// Package progress persists the user's saved books, per-book resume points and
// downloaded sections.
//
// The store has two independently addressable namespaces: the ordered list of
// saved books and one playback state per book id. The saved-books view reads the
// playback state through a join, so a book that is both saved and has progress
// always shows the same resume point in both views.
package progress

import (
	"errors"
	"time"
)

// ErrPersistence wraps every storage or serialization failure returned by the store.
var ErrPersistence = errors.New("persistence error")

// PlaybackState is the resume point of one book.
type PlaybackState struct {
	TrackIndex   int
	Position     time.Duration
	LastPlayedAt time.Time
}

// SavedBook is an entry of the user's local library.
type SavedBook struct {
	ID                string
	Title             string
	CoverThumbnailURI string
	PlaybackState     *PlaybackState // nil when the book was never played
}

// DownloadedSection records a section stored on local disk.
type DownloadedSection struct {
	BookID       string
	Index        int
	AudioURI     string
	LocalPath    string
	Size         int64
	DownloadedAt time.Time
}
