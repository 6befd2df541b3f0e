// Package controller binds a book, its resolved tracks, the playback adapter
// and the progress store into a listening session.
//
// A Controller owns one playback resource and at most one open Session. Opening
// a session restores the saved position of the book, loads the matching track
// without starting it, and from then on records progress at a bounded rate.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/feed"
	"github.com/llehouerou/folio/internal/playback"
	"github.com/llehouerou/folio/internal/progress"
)

var (
	// ErrSessionClosed is returned by operations on a torn-down session.
	ErrSessionClosed = errors.New("session closed")
	// ErrNoTracks is returned when a feed has no playable sections.
	ErrNoTracks = errors.New("book has no playable sections")
)

const (
	DefaultProgressInterval = 5 * time.Second
	DefaultSkipStep         = 10 * time.Second

	storeTimeout = 5 * time.Second
)

// Resolver turns a feed URL into an ordered track list.
type Resolver interface {
	ResolveTracks(ctx context.Context, feedURL string) ([]feed.Track, error)
}

// Store is the slice of the progress store a session needs.
type Store interface {
	PlaybackState(ctx context.Context, id string) (mo.Option[progress.PlaybackState], error)
	SavePlaybackState(ctx context.Context, id string, state progress.PlaybackState) error
	DownloadedSection(ctx context.Context, bookID string, index int) (mo.Option[progress.DownloadedSection], error)
}

// Playback is the track-level engine driven by a session.
type Playback interface {
	Load(ctx context.Context, uri string, start time.Duration) (*playback.Subscription, error)
	Unload()
	Play() error
	Pause() error
	Seek(pos time.Duration) (time.Duration, error)
	SeekBy(delta time.Duration) (time.Duration, error)
	State() playback.State
	Current() playback.Status
}

var (
	_ Resolver = (*feed.Resolver)(nil)
	_ Store    = (*progress.Store)(nil)
	_ Playback = (*playback.Adapter)(nil)
)

// Options tunes a Controller. Zero values use the defaults.
type Options struct {
	// ProgressInterval is the minimum spacing of periodic progress writes.
	ProgressInterval time.Duration
	// SkipStep is the distance covered by SkipForward and SkipBack.
	SkipStep time.Duration
	// FS is where downloaded sections are looked up.
	FS afero.Fs
}

// Controller hands out sessions over a single playback resource.
type Controller struct {
	resolver Resolver
	store    Store
	playback Playback
	opts     Options
	log      *zap.Logger

	mu      sync.Mutex
	current *Session
}

// New creates a controller.
func New(resolver Resolver, store Store, pb Playback, opts Options, log *zap.Logger) *Controller {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.SkipStep <= 0 {
		opts.SkipStep = DefaultSkipStep
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		resolver: resolver,
		store:    store,
		playback: pb,
		opts:     opts,
		log:      log,
	}
}

// NewSession tears down the current session, if any, and returns a new one
// for book. The session does nothing until Open is called.
func (c *Controller) NewSession(book catalog.Audiobook) *Session {
	c.mu.Lock()
	prev := c.current
	c.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	s := newSession(c, book)
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
	return s
}

// Open is NewSession followed by Session.Open.
func (c *Controller) Open(ctx context.Context, book catalog.Audiobook) (*Session, error) {
	s := c.NewSession(book)
	if err := s.Open(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Current returns the open session, if any.
func (c *Controller) Current() mo.Option[*Session] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return mo.None[*Session]()
	}
	return mo.Some(c.current)
}

// Close tears down the current session.
func (c *Controller) Close() error {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close()
}

func (c *Controller) detach(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == s {
		c.current = nil
	}
}

// storeContext bounds a store call independently of session cancellation,
// so teardown flushes still reach the database.
func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

func newSessionID() string {
	return uuid.NewString()
}
