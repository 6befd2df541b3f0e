// Package player plays MP3 sections from local files or HTTP URLs through the
// system audio device.
package player

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
)

// ErrNoMedia is returned by commands issued while nothing is open.
var ErrNoMedia = errors.New("no media open")

// Player is the beep-backed engine.
type Player struct {
	out  output
	open func(ctx context.Context, uri string) (*media, error)

	mu         sync.Mutex
	media      *media
	rate       beep.SampleRate
	ctrl       *beep.Ctrl
	ended      *atomic.Bool // set by the mixer once ctrl has played out
	playing    bool
	buffering  bool
	finishedCh chan struct{}
}

// New creates a player. HTTP media is fetched with httpTimeout per section.
func New(httpTimeout time.Duration) *Player {
	return newPlayer(defaultOutput, newOpener(httpTimeout).open)
}

func newPlayer(out output, open func(ctx context.Context, uri string) (*media, error)) *Player {
	return &Player{
		out:        out,
		open:       open,
		finishedCh: make(chan struct{}, 1),
	}
}

// Open loads uri paused at its start.
func (p *Player) Open(ctx context.Context, uri string) error {
	if err := p.Close(); err != nil {
		return err
	}

	p.mu.Lock()
	p.buffering = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.buffering = false
		p.mu.Unlock()
	}()

	m, err := p.open(ctx, uri)
	if err != nil {
		return err
	}

	rate, err := p.out.init(m.format.SampleRate)
	if err != nil {
		m.Close()
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Drain any stale finish signal from the previous media.
	select {
	case <-p.finishedCh:
	default:
	}

	p.media = m
	p.rate = rate
	p.playing = false
	p.attachLocked(true)
	return nil
}

// attachLocked mixes the open media into the output from its current
// position through a new Ctrl. Once a Ctrl has played out the mixer drops it,
// so resuming finished media needs a new one. Must be called with p.mu held.
func (p *Player) attachLocked(paused bool) {
	var stream beep.Streamer = p.media.streamer
	if p.media.format.SampleRate != p.rate {
		stream = beep.Resample(4, p.media.format.SampleRate, p.rate, p.media.streamer)
	}
	ctrl := &beep.Ctrl{Streamer: stream, Paused: paused}
	ended := &atomic.Bool{}
	p.ctrl = ctrl
	p.ended = ended

	// The callback runs under the output lock, so p.mu is taken elsewhere.
	p.out.play(beep.Seq(ctrl, beep.Callback(func() {
		ended.Store(true)
		go p.finished(ctrl)
	})))
}

func (p *Player) finished(ctrl *beep.Ctrl) {
	p.mu.Lock()
	current := p.ctrl == ctrl
	if current {
		p.playing = false
	}
	p.mu.Unlock()
	if !current {
		return
	}
	select {
	case p.finishedCh <- struct{}{}:
	default:
	}
}

// Close stops playback and releases the media.
func (p *Player) Close() error {
	p.mu.Lock()
	m := p.media
	p.media = nil
	p.ctrl = nil
	p.ended = nil
	p.playing = false
	p.mu.Unlock()

	if m == nil {
		return nil
	}
	p.out.clear()
	return m.Close()
}

// FinishedChan returns the natural end-of-media signal.
func (p *Player) FinishedChan() <-chan struct{} {
	return p.finishedCh
}
