package playback

import "time"

// Status is emitted on every engine tick while media is loaded.
type Status struct {
	State     State
	Position  time.Duration
	Duration  time.Duration
	Playing   bool
	Buffering bool
}
