package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/feed"
	"github.com/llehouerou/folio/internal/playback"
	"github.com/llehouerou/folio/internal/progress"
)

// Session is one listening session of one book. It is created per book-open
// and is unusable after Close.
type Session struct {
	id     string
	book   catalog.Audiobook
	c      *Controller
	log    *zap.Logger
	writer *progressWriter

	// ctx is cancelled on Close and bounds every fetch and load of the session.
	ctx    context.Context
	cancel context.CancelFunc
	loops  sync.WaitGroup

	mu        sync.Mutex
	opened    bool
	closed    bool
	tracks    []feed.Track
	index     int
	sub       *playback.Subscription
	state     playback.State
	position  time.Duration
	duration  time.Duration
	buffering bool
	lastErr   error
	updates   chan Snapshot
}

func newSession(c *Controller, book catalog.Audiobook) *Session {
	id := newSessionID()
	log := c.log.With(zap.String("session", id), zap.String("book", book.ID))
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:      id,
		book:    book,
		c:       c,
		log:     log,
		writer:  newProgressWriter(book.ID, c.store, c.opts.ProgressInterval, log),
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan Snapshot, 1),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Book returns the book of the session.
func (s *Session) Book() catalog.Audiobook { return s.book }

// Tracks returns the resolved tracks. It is empty until Open succeeds.
func (s *Session) Tracks() []feed.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feed.Track(nil), s.tracks...)
}

// Open restores the saved position of the book, resolves its feed and loads the
// matching track paused. Results that arrive after Close are discarded and
// Open returns ErrSessionClosed.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.opened {
		s.mu.Unlock()
		return fmt.Errorf("%w: session already opened", playback.ErrCommand)
	}
	s.opened = true
	s.state = playback.StateLoading
	s.publishLocked()
	s.mu.Unlock()

	ctx, release := s.bind(ctx)
	defer release()

	saved := s.savedState(ctx)
	tracks, err := s.c.resolver.ResolveTracks(ctx, s.book.FeedURL)
	if s.isClosed() {
		s.log.Debug("discard feed result of closed session")
		return ErrSessionClosed
	}
	if err != nil {
		s.fail(err)
		return err
	}
	if len(tracks) == 0 {
		s.fail(ErrNoTracks)
		return ErrNoTracks
	}

	index, pos, clamped := Restore(saved, len(tracks))
	if clamped {
		s.log.Info("saved track out of range, starting last track",
			zap.Int("saved", saved.MustGet().TrackIndex),
			zap.Int("tracks", len(tracks)))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.tracks = tracks
	s.mu.Unlock()

	return s.load(ctx, index, pos, false)
}

func (s *Session) savedState(ctx context.Context) mo.Option[progress.PlaybackState] {
	saved, err := s.c.store.PlaybackState(ctx, s.book.ID)
	if err != nil {
		s.log.Warn("read playback state", zap.Error(err))
		return mo.None[progress.PlaybackState]()
	}
	return saved
}

// load loads track index at pos and, when play is set, starts it.
func (s *Session) load(ctx context.Context, index int, pos time.Duration, play bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	track := s.tracks[index]
	s.index = index
	s.position = pos
	s.duration = 0
	s.sub = nil
	s.state = playback.StateLoading
	s.lastErr = nil
	s.publishLocked()
	s.mu.Unlock()

	uri := s.mediaURI(ctx, track)
	if s.isClosed() {
		return ErrSessionClosed
	}
	sub, err := s.c.playback.Load(ctx, uri, pos)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if err != nil {
		s.mu.Unlock()
		s.fail(err)
		return err
	}
	st := s.c.playback.Current()
	s.sub = sub
	s.applyLocked(st)
	s.loops.Add(1)
	go s.run(sub)
	s.publishLocked()
	s.mu.Unlock()

	s.log.Debug("track ready", zap.Int("track", index), zap.Duration("position", st.Position))
	if play {
		return s.Play()
	}
	return nil
}

// mediaURI prefers a downloaded copy of track over the network.
func (s *Session) mediaURI(ctx context.Context, track feed.Track) string {
	local, err := s.c.store.DownloadedSection(ctx, s.book.ID, track.Index)
	if err != nil {
		s.log.Warn("look up downloaded section", zap.Int("track", track.Index), zap.Error(err))
		return track.AudioURI
	}
	d, ok := local.Get()
	if !ok {
		return track.AudioURI
	}
	if exists, _ := afero.Exists(s.c.opts.FS, d.LocalPath); !exists {
		s.log.Info("downloaded section missing on disk", zap.String("path", d.LocalPath))
		return track.AudioURI
	}
	return d.LocalPath
}

func (s *Session) run(sub *playback.Subscription) {
	defer s.loops.Done()
	for {
		select {
		case st := <-sub.Status:
			s.onStatus(sub, st)
		case <-sub.Finished:
			s.onFinished(sub)
		case <-sub.Done:
			return
		}
	}
}

func (s *Session) onStatus(sub *playback.Subscription, st playback.Status) {
	s.mu.Lock()
	if s.closed || s.sub != sub {
		s.mu.Unlock()
		return
	}
	s.applyLocked(st)
	state := s.placeLocked()
	s.publishLocked()
	s.mu.Unlock()

	if st.State == playback.StatePlaying {
		s.writer.Offer(state)
	}
}

func (s *Session) onFinished(sub *playback.Subscription) {
	s.mu.Lock()
	if s.closed || s.sub != sub {
		s.mu.Unlock()
		return
	}
	s.state = playback.StateFinished
	s.position = s.duration
	next := s.index + 1
	last := next >= len(s.tracks)
	final := s.placeLocked()
	s.publishLocked()
	s.mu.Unlock()

	if last {
		s.log.Info("book finished")
		// The end of the last section is kept so reopening lands on it.
		s.writer.Write(final)
		return
	}

	s.log.Debug("track finished, advancing", zap.Int("next", next))
	s.writer.Write(progress.PlaybackState{TrackIndex: next, LastPlayedAt: time.Now()})
	ctx, release := s.bind(context.Background())
	defer release()
	if err := s.load(ctx, next, 0, true); err != nil && !errors.Is(err, ErrSessionClosed) {
		s.log.Warn("advance to next track", zap.Int("track", next), zap.Error(err))
	}
}

// Play starts or resumes the current track.
func (s *Session) Play() error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.c.playback.Play(); err != nil {
		return err
	}
	s.refresh()
	return nil
}

// Pause pauses the current track and flushes its position.
func (s *Session) Pause() error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.c.playback.Pause(); err != nil {
		return err
	}
	if state, ok := s.refresh().Get(); ok {
		s.writer.Write(state)
	}
	return nil
}

// Toggle pauses when playing and plays otherwise.
func (s *Session) Toggle() error {
	if s.c.playback.State() == playback.StatePlaying {
		return s.Pause()
	}
	return s.Play()
}

// Seek moves within the current track. The position is clamped to the track.
func (s *Session) Seek(pos time.Duration) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if _, err := s.c.playback.Seek(pos); err != nil {
		return err
	}
	s.afterSeek()
	return nil
}

// SkipForward seeks ahead by the configured skip step.
func (s *Session) SkipForward() error {
	return s.seekBy(s.c.opts.SkipStep)
}

// SkipBack seeks back by the configured skip step.
func (s *Session) SkipBack() error {
	return s.seekBy(-s.c.opts.SkipStep)
}

func (s *Session) seekBy(delta time.Duration) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if _, err := s.c.playback.SeekBy(delta); err != nil {
		return err
	}
	s.afterSeek()
	return nil
}

func (s *Session) afterSeek() {
	state, ok := s.refresh().Get()
	if !ok {
		return
	}
	if s.c.playback.State() == playback.StatePlaying {
		s.writer.Offer(state)
		return
	}
	s.writer.Write(state)
}

// Next jumps to the start of the following track.
func (s *Session) Next() error {
	return s.JumpTo(s.Snapshot().TrackIndex + 1)
}

// Previous jumps to the start of the preceding track.
func (s *Session) Previous() error {
	return s.JumpTo(s.Snapshot().TrackIndex - 1)
}

// JumpTo loads track index from its start. Playback continues if it was
// playing.
func (s *Session) JumpTo(index int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	count := len(s.tracks)
	s.mu.Unlock()
	if index < 0 || index >= count {
		return fmt.Errorf("%w: track %d out of range [0, %d)", playback.ErrCommand, index, count)
	}

	wasPlaying := s.c.playback.State() == playback.StatePlaying
	if state, ok := s.refresh().Get(); ok {
		s.writer.Offer(state)
	}
	s.writer.Write(progress.PlaybackState{TrackIndex: index, LastPlayedAt: time.Now()})

	ctx, release := s.bind(context.Background())
	defer release()
	return s.load(ctx, index, 0, wasPlaying)
}

// Close flushes progress, releases the track and stops event delivery.
// In-flight fetches and loads are cancelled and their results discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	loaded := s.sub != nil
	index := s.index
	s.mu.Unlock()

	s.cancel()
	if loaded {
		if st := s.c.playback.Current(); st.State.HasMedia() {
			s.writer.Offer(progress.PlaybackState{TrackIndex: index, Position: st.Position, LastPlayedAt: time.Now()})
		}
	}
	s.writer.Close()
	s.c.playback.Unload()
	s.loops.Wait()

	s.mu.Lock()
	close(s.updates)
	s.mu.Unlock()

	s.c.detach(s)
	s.log.Debug("session closed")
	return nil
}

// refresh pulls the adapter status into the session and returns the current
// place in the book, if a track is loaded.
func (s *Session) refresh() mo.Option[progress.PlaybackState] {
	st := s.c.playback.Current()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.sub == nil {
		return mo.None[progress.PlaybackState]()
	}
	s.applyLocked(st)
	s.publishLocked()
	return mo.Some(s.placeLocked())
}

func (s *Session) applyLocked(st playback.Status) {
	s.state = st.State
	s.position = st.Position
	s.duration = st.Duration
	s.buffering = st.Buffering
}

func (s *Session) placeLocked() progress.PlaybackState {
	return progress.PlaybackState{
		TrackIndex:   s.index,
		Position:     s.position,
		LastPlayedAt: time.Now(),
	}
}

func (s *Session) fail(err error) {
	s.log.Warn("session error", zap.Error(err))
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.lastErr = err
	s.state = s.c.playback.State()
	s.publishLocked()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// bind derives a context that is also cancelled when the session closes.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
