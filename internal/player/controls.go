package player

import (
	"time"
)

// Play resumes the open media. Media that played to its end starts again
// from its current position, so seeking back and playing works after the end.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return ErrNoMedia
	}
	if p.ended.Load() {
		p.attachLocked(false)
	} else {
		p.out.lock()
		p.ctrl.Paused = false
		p.out.unlock()
	}
	p.playing = true
	return nil
}

// Pause pauses the open media.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return ErrNoMedia
	}
	p.out.lock()
	p.ctrl.Paused = true
	p.out.unlock()
	p.playing = false
	return nil
}

// SeekTo moves the open media to pos.
func (p *Player) SeekTo(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil {
		return ErrNoMedia
	}
	n := p.media.format.SampleRate.N(pos)
	n = min(max(n, 0), p.media.streamer.Len())

	p.out.lock()
	defer p.out.unlock()
	return p.media.streamer.Seek(n)
}

// Status returns the current position, duration and flags.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{Playing: p.playing, Buffering: p.buffering}
	if p.media == nil {
		return st
	}
	// Position is read without the output lock; a slightly stale value is fine.
	rate := p.media.format.SampleRate
	st.Position = rate.D(p.media.streamer.Position())
	st.Duration = rate.D(p.media.streamer.Len())
	return st
}
