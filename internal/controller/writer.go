package controller

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/progress"
)

// progressWriter rate-limits playback state writes for one book. Offer writes
// at most once per interval and keeps the latest value pending in between;
// Write and Close go through immediately.
type progressWriter struct {
	bookID   string
	store    Store
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	last    time.Time
	pending *progress.PlaybackState
	written *progress.PlaybackState
	closed  bool
}

func newProgressWriter(bookID string, store Store, interval time.Duration, log *zap.Logger) *progressWriter {
	return &progressWriter{bookID: bookID, store: store, interval: interval, log: log}
}

// Offer records state and writes it if the interval has elapsed since the
// previous write.
func (w *progressWriter) Offer(state progress.PlaybackState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending = &state
	if time.Since(w.last) >= w.interval {
		w.flushLocked()
	}
}

// Write records state and writes it now.
func (w *progressWriter) Write(state progress.PlaybackState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending = &state
	w.flushLocked()
}

// Close flushes and stops accepting states.
func (w *progressWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.flushLocked()
	w.closed = true
}

func (w *progressWriter) flushLocked() {
	if w.pending == nil {
		return
	}
	state := *w.pending
	w.pending = nil
	if w.written != nil && samePlace(*w.written, state) {
		return
	}

	ctx, cancel := storeContext()
	defer cancel()
	w.last = time.Now()
	if err := w.store.SavePlaybackState(ctx, w.bookID, state); err != nil {
		w.log.Warn("save playback state",
			zap.Int("track", state.TrackIndex),
			zap.Duration("position", state.Position),
			zap.Error(err))
		return
	}
	w.written = &state
}

func samePlace(a, b progress.PlaybackState) bool {
	return a.TrackIndex == b.TrackIndex && a.Position == b.Position
}
