package controller

import (
	"time"

	"github.com/samber/mo"

	"github.com/llehouerou/folio/internal/progress"
)

// Restore picks where to resume a book with count tracks. A saved track index
// past the end of the feed falls back to the last track from its start, and
// clamped reports that. Restore is idempotent: feeding its result back in
// yields the same answer.
func Restore(saved mo.Option[progress.PlaybackState], count int) (index int, pos time.Duration, clamped bool) {
	state, ok := saved.Get()
	if !ok || count <= 0 {
		return 0, 0, false
	}
	if state.TrackIndex >= count {
		return count - 1, 0, true
	}
	return max(state.TrackIndex, 0), max(state.Position, 0), false
}
