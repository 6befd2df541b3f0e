// Package playback drives the media engine through a single-track state machine.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/player"
)

var (
	// ErrMediaLoad is returned when a track cannot be opened.
	ErrMediaLoad = errors.New("media load failed")
	// ErrCommand is returned for commands that are invalid in the current state.
	ErrCommand = errors.New("playback command failed")
)

// DefaultStatusInterval is the engine tick period.
const DefaultStatusInterval = 250 * time.Millisecond

// Adapter owns the single active playback resource.
type Adapter struct {
	engine   player.Interface
	interval time.Duration
	log      *zap.Logger

	// loadMu serializes Load and Unload so that two media resources never race.
	loadMu sync.Mutex

	mu         sync.Mutex
	state      State
	uri        string
	cancelLoad context.CancelFunc
	sub        *Subscription
	stopWatch  chan struct{}
	watchDone  chan struct{}
}

// New creates an adapter over engine. A zero interval uses DefaultStatusInterval.
func New(engine player.Interface, interval time.Duration, log *zap.Logger) *Adapter {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	return &Adapter{engine: engine, interval: interval, log: log}
}

// State returns the current state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Current returns a status snapshot without waiting for a tick.
func (a *Adapter) Current() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusLocked()
}

func (a *Adapter) statusLocked() Status {
	st := Status{State: a.state}
	if !a.state.HasMedia() {
		return st
	}
	es := a.engine.Status()
	st.Position = es.Position
	st.Duration = es.Duration
	st.Playing = a.state == StatePlaying
	st.Buffering = es.Buffering
	return st
}

// Load releases the current track, opens uri and positions it at start, clamped
// to the track duration. Playback does not start. A Load issued while another is
// in flight cancels the earlier one and waits for it to settle.
// The returned subscription carries the events of this track only.
//
// A Load whose ctx is already done, or that is superseded before it starts,
// returns without touching the loads or media of other callers.
func (a *Adapter) Load(ctx context.Context, uri string, start time.Duration) (*Subscription, error) {
	a.mu.Lock()
	if err := ctx.Err(); err != nil {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %s: %w", ErrMediaLoad, uri, err)
	}
	loadCtx, cancel := context.WithCancel(ctx)
	if a.cancelLoad != nil {
		a.cancelLoad()
	}
	a.cancelLoad = cancel
	a.mu.Unlock()

	a.loadMu.Lock()
	defer a.loadMu.Unlock()

	if err := loadCtx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMediaLoad, uri, err)
	}
	a.unloadLocked()

	a.setState(StateLoading)
	if err := a.engine.Open(loadCtx, uri); err != nil {
		a.failLoad()
		return nil, fmt.Errorf("%w: %s: %w", ErrMediaLoad, uri, err)
	}
	if err := loadCtx.Err(); err != nil {
		a.failLoad()
		return nil, fmt.Errorf("%w: %s: %w", ErrMediaLoad, uri, err)
	}

	if start > 0 {
		start = min(start, a.engine.Status().Duration)
		if err := a.engine.SeekTo(start); err != nil {
			a.failLoad()
			return nil, fmt.Errorf("%w: %s: seek to %v: %w", ErrMediaLoad, uri, start, err)
		}
	}

	sub := newSubscription()
	stop := make(chan struct{})
	done := make(chan struct{})

	a.mu.Lock()
	a.state = StateReady
	a.uri = uri
	a.sub = sub
	a.stopWatch = stop
	a.watchDone = done
	a.mu.Unlock()

	go a.watch(sub, stop, done)
	a.log.Debug("track loaded", zap.String("uri", uri), zap.Duration("start", start))
	return sub, nil
}

func (a *Adapter) failLoad() {
	if err := a.engine.Close(); err != nil {
		a.log.Warn("release failed media", zap.Error(err))
	}
	a.setState(StateIdle)
}

// Unload cancels any in-flight load and releases the current track.
func (a *Adapter) Unload() {
	a.mu.Lock()
	if a.cancelLoad != nil {
		a.cancelLoad()
		a.cancelLoad = nil
	}
	a.mu.Unlock()

	a.loadMu.Lock()
	defer a.loadMu.Unlock()
	a.unloadLocked()
}

// Close releases all resources. The adapter can not be reused.
func (a *Adapter) Close() error {
	a.Unload()
	return nil
}

// unloadLocked must be called with loadMu held.
func (a *Adapter) unloadLocked() {
	a.mu.Lock()
	sub, stop, done := a.sub, a.stopWatch, a.watchDone
	hadMedia := a.state != StateIdle
	a.sub, a.stopWatch, a.watchDone = nil, nil, nil
	a.uri = ""
	a.state = StateIdle
	a.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	if sub != nil {
		sub.close()
	}
	if hadMedia {
		if err := a.engine.Close(); err != nil {
			a.log.Warn("release media", zap.Error(err))
		}
	}
}

// Play starts or resumes playback.
func (a *Adapter) Play() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StatePlaying {
		return nil
	}
	if !a.state.CanPlay() {
		return fmt.Errorf("%w: play while %s", ErrCommand, a.state)
	}
	if err := a.engine.Play(); err != nil {
		return fmt.Errorf("%w: play: %w", ErrCommand, err)
	}
	a.state = StatePlaying
	return nil
}

// Pause pauses playback.
func (a *Adapter) Pause() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case StatePaused, StateReady:
		return nil
	case StatePlaying:
	default:
		return fmt.Errorf("%w: pause while %s", ErrCommand, a.state)
	}
	if err := a.engine.Pause(); err != nil {
		return fmt.Errorf("%w: pause: %w", ErrCommand, err)
	}
	a.state = StatePaused
	return nil
}

// Seek moves to pos clamped to [0, duration] and returns the position used.
// The state does not change, except that seeking a finished track back before
// its end pauses it.
func (a *Adapter) Seek(pos time.Duration) (time.Duration, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.HasMedia() {
		return 0, fmt.Errorf("%w: seek while %s", ErrCommand, a.state)
	}
	pos = clamp(pos, a.engine.Status().Duration)
	if err := a.engine.SeekTo(pos); err != nil {
		return 0, fmt.Errorf("%w: seek: %w", ErrCommand, err)
	}
	if a.state == StateFinished && pos < a.engine.Status().Duration {
		a.state = StatePaused
	}
	return pos, nil
}

// SeekBy moves relative to the current position.
func (a *Adapter) SeekBy(delta time.Duration) (time.Duration, error) {
	return a.Seek(a.Current().Position + delta)
}

func clamp(pos, duration time.Duration) time.Duration {
	return min(max(pos, 0), max(duration, 0))
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// watch forwards engine ticks and the end-of-track signal to sub until stopped.
func (a *Adapter) watch(sub *Subscription, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.mu.Lock()
			st := a.statusLocked()
			a.mu.Unlock()
			sub.sendStatus(st)
		case <-a.engine.FinishedChan():
			a.mu.Lock()
			if a.sub != sub {
				a.mu.Unlock()
				return
			}
			a.state = StateFinished
			st := a.statusLocked()
			a.mu.Unlock()
			sub.sendStatus(st)
			sub.sendFinished()
		}
	}
}
