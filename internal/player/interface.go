// internal/player/interface.go
package player

import (
	"context"
	"time"
)

// Status is a snapshot of the engine's current media.
type Status struct {
	Position  time.Duration
	Duration  time.Duration
	Playing   bool
	Buffering bool
}

// Interface is the opaque media engine driven by the playback adapter.
// At most one media resource is open at a time.
type Interface interface {
	// Open releases any open media and opens uri paused at position 0.
	Open(ctx context.Context, uri string) error
	Play() error
	Pause() error
	// SeekTo moves to an absolute position. Callers clamp to [0, duration].
	SeekTo(pos time.Duration) error
	// Close releases the open media. It is a no-op when nothing is open.
	Close() error
	Status() Status
	// FinishedChan is signalled when the open media plays to its natural end.
	FinishedChan() <-chan struct{}
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
