package controller

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/feed"
	"github.com/llehouerou/folio/internal/playback"
	"github.com/llehouerou/folio/internal/progress"
)

func TestOpen_RestoresSavedPlaceWithoutPlaying(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(5)
		h.store.setState("1594", progress.PlaybackState{TrackIndex: 3, Position: 95 * time.Second})

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, []string{trackURI(3)}, h.engine.OpenCalls())
		assert.Equal(t, []time.Duration{95 * time.Second}, h.engine.SeekCalls())
		assert.Equal(t, 0, h.engine.PlayCalls())

		snap := s.Snapshot()
		assert.Equal(t, 3, snap.TrackIndex)
		assert.Equal(t, 5, snap.TrackCount)
		assert.Equal(t, "Chapter 4", snap.Track.Title)
		assert.Equal(t, playback.StateReady, snap.State)
		assert.Equal(t, 95*time.Second, snap.Position)
	})
}

func TestOpen_NoSavedStateStartsAtBeginning(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(3)

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, []string{trackURI(0)}, h.engine.OpenCalls())
		assert.Empty(t, h.engine.SeekCalls())
		assert.Equal(t, playback.StateReady, s.Snapshot().State)
	})
}

func TestOpen_ClampsSavedTrackPastEnd(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(5)
		h.store.setState("1594", progress.PlaybackState{TrackIndex: 7, Position: 40 * time.Second})

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, []string{trackURI(4)}, h.engine.OpenCalls())
		assert.Empty(t, h.engine.SeekCalls())
		snap := s.Snapshot()
		assert.Equal(t, 4, snap.TrackIndex)
		assert.Equal(t, time.Duration(0), snap.Position)
	})
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name        string
		saved       mo.Option[progress.PlaybackState]
		count       int
		wantIndex   int
		wantPos     time.Duration
		wantClamped bool
	}{
		{"none", mo.None[progress.PlaybackState](), 5, 0, 0, false},
		{"in range", mo.Some(progress.PlaybackState{TrackIndex: 2, Position: time.Minute}), 5, 2, time.Minute, false},
		{"last track", mo.Some(progress.PlaybackState{TrackIndex: 4, Position: time.Minute}), 5, 4, time.Minute, false},
		{"past end", mo.Some(progress.PlaybackState{TrackIndex: 7, Position: 40 * time.Second}), 5, 4, 0, true},
		{"at count", mo.Some(progress.PlaybackState{TrackIndex: 5, Position: time.Second}), 5, 4, 0, true},
		{"empty feed", mo.Some(progress.PlaybackState{TrackIndex: 3}), 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, pos, clamped := Restore(tt.saved, tt.count)
			assert.Equal(t, tt.wantIndex, index)
			assert.Equal(t, tt.wantPos, pos)
			assert.Equal(t, tt.wantClamped, clamped)

			if tt.count > 0 {
				again := mo.Some(progress.PlaybackState{TrackIndex: index, Position: pos})
				index2, pos2, clamped2 := Restore(again, tt.count)
				assert.Equal(t, index, index2)
				assert.Equal(t, pos, pos2)
				assert.False(t, clamped2)
			}
		})
	}
}

func TestFinished_AdvancesToNextTrack(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(5)
		h.store.setState("1594", progress.PlaybackState{TrackIndex: 2})

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()
		require.NoError(t, s.Play())

		h.engine.SimulateFinished()
		synctest.Wait()

		assert.Equal(t, []string{trackURI(2), trackURI(3)}, h.engine.OpenCalls())
		assert.Equal(t, progress.PlaybackState{TrackIndex: 3}, h.store.lastPlace(t))
		snap := s.Snapshot()
		assert.Equal(t, 3, snap.TrackIndex)
		assert.Equal(t, playback.StatePlaying, snap.State)
		assert.Equal(t, time.Duration(0), snap.Position)
	})
}

func TestFinished_LastTrackStaysFinished(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(5)
		h.store.setState("1594", progress.PlaybackState{TrackIndex: 4})

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()
		require.NoError(t, s.Play())

		h.engine.SimulateFinished()
		synctest.Wait()

		assert.Len(t, h.engine.OpenCalls(), 1)
		assert.Equal(t, playback.StateFinished, s.Snapshot().State)
		assert.Equal(t, progress.PlaybackState{TrackIndex: 4, Position: 10 * time.Minute}, h.store.lastPlace(t))
		assert.ErrorIs(t, s.Play(), playback.ErrCommand)
	})
}

func TestClose_DuringFetchDiscardsResult(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(5)
		release := h.resolver.hold()
		s := h.ctrl.NewSession(h.book)

		errc := make(chan error, 1)
		go func() { errc <- s.Open(context.Background()) }()
		synctest.Wait()

		require.NoError(t, s.Close())
		release()

		require.ErrorIs(t, <-errc, ErrSessionClosed)
		assert.Empty(t, h.engine.OpenCalls())
		assert.Empty(t, h.store.places())
		assert.Equal(t, 0, s.Snapshot().TrackCount)
		assert.ErrorIs(t, s.Play(), ErrSessionClosed)
	})
}

func TestProgress_WritesAtMostOncePerInterval(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(1)

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()
		require.NoError(t, s.Play())

		for i := 1; i <= 12; i++ {
			h.engine.SetPosition(time.Duration(i) * time.Second)
			time.Sleep(time.Second)
		}

		assert.Equal(t, []progress.PlaybackState{
			{Position: 1 * time.Second},
			{Position: 6 * time.Second},
			{Position: 11 * time.Second},
		}, h.store.places())
	})
}

func TestPause_FlushesPosition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(1)

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()
		require.NoError(t, s.Play())

		h.engine.SetPosition(2 * time.Second)
		time.Sleep(time.Second)
		h.engine.SetPosition(4 * time.Second)
		require.NoError(t, s.Pause())

		assert.Equal(t, []progress.PlaybackState{
			{Position: 2 * time.Second},
			{Position: 4 * time.Second},
		}, h.store.places())
		assert.Equal(t, playback.StatePaused, s.Snapshot().State)
	})
}

func TestClose_FlushesPosition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(1)

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		require.NoError(t, s.Play())
		h.engine.SetPosition(2 * time.Second)
		time.Sleep(time.Second)
		h.engine.SetPosition(3 * time.Second)

		require.NoError(t, s.Close())

		assert.Equal(t, progress.PlaybackState{Position: 3 * time.Second}, h.store.lastPlace(t))
		assert.False(t, h.engine.IsOpen())
		for range s.Updates() {
		}
	})
}

func TestPersistenceFailure_DoesNotInterruptPlayback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(1)
		h.store.setSaveError(errors.New("disk I/O error"))

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()
		require.NoError(t, s.Play())

		h.engine.SetPosition(2 * time.Second)
		time.Sleep(time.Second)
		assert.Equal(t, playback.StatePlaying, s.Snapshot().State)

		require.NoError(t, s.Pause())
		assert.Equal(t, playback.StatePaused, s.Snapshot().State)
		assert.NoError(t, s.Snapshot().LastError)
	})
}

func TestOpen_FeedFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(0)
		h.resolver.err = feed.ErrUnavailable

		s, err := h.ctrl.Open(context.Background(), h.book)
		defer s.Close()

		require.ErrorIs(t, err, feed.ErrUnavailable)
		assert.Empty(t, h.engine.OpenCalls())
		assert.ErrorIs(t, s.Snapshot().LastError, feed.ErrUnavailable)
	})
}

func TestOpen_NoTracks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(0)

		s, err := h.ctrl.Open(context.Background(), h.book)
		defer s.Close()

		require.ErrorIs(t, err, ErrNoTracks)
		assert.Empty(t, h.engine.OpenCalls())
	})
}

func TestOpen_MediaLoadFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(2)
		h.engine.SetOpenError(errors.New("connection reset"))

		s, err := h.ctrl.Open(context.Background(), h.book)
		defer s.Close()

		require.ErrorIs(t, err, playback.ErrMediaLoad)
		snap := s.Snapshot()
		assert.Equal(t, playback.StateIdle, snap.State)
		assert.ErrorIs(t, snap.LastError, playback.ErrMediaLoad)
	})
}

func TestOpen_PrefersDownloadedSection(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(2)
		require.NoError(t, afero.WriteFile(h.fs, "/books/1594/0.mp3", []byte("ID3"), 0o644))
		h.store.addDownload(progress.DownloadedSection{BookID: "1594", Index: 0, LocalPath: "/books/1594/0.mp3"})
		h.store.addDownload(progress.DownloadedSection{BookID: "1594", Index: 1, LocalPath: "/books/1594/1.mp3"})

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()
		require.NoError(t, s.Next())

		assert.Equal(t, []string{"/books/1594/0.mp3", trackURI(1)}, h.engine.OpenCalls())
	})
}

func TestJumpTo(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(3)

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()

		require.ErrorIs(t, s.JumpTo(3), playback.ErrCommand)
		require.ErrorIs(t, s.Previous(), playback.ErrCommand)

		require.NoError(t, s.JumpTo(2))
		assert.Equal(t, playback.StateReady, s.Snapshot().State)
		assert.Equal(t, progress.PlaybackState{TrackIndex: 2}, h.store.lastPlace(t))

		require.NoError(t, s.Play())
		require.NoError(t, s.Previous())
		snap := s.Snapshot()
		assert.Equal(t, 1, snap.TrackIndex)
		assert.Equal(t, playback.StatePlaying, snap.State)
		assert.Equal(t, []string{trackURI(0), trackURI(2), trackURI(1)}, h.engine.OpenCalls())
	})
}

func TestSkip(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(1)
		h.store.setState("1594", progress.PlaybackState{Position: 5 * time.Second})

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.SkipForward())
		assert.Equal(t, 15*time.Second, s.Snapshot().Position)
		assert.Equal(t, progress.PlaybackState{Position: 15 * time.Second}, h.store.lastPlace(t))

		require.NoError(t, s.SkipBack())
		require.NoError(t, s.SkipBack())
		assert.Equal(t, time.Duration(0), s.Snapshot().Position)

		require.NoError(t, s.Seek(time.Hour))
		assert.Equal(t, 10*time.Minute, s.Snapshot().Position)
	})
}

func TestToggle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(1)

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.Toggle())
		assert.Equal(t, playback.StatePlaying, s.Snapshot().State)
		require.NoError(t, s.Toggle())
		assert.Equal(t, playback.StatePaused, s.Snapshot().State)
	})
}

func TestUpdates_DeliversLatestSnapshot(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(2)

		s, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)

		snap := <-s.Updates()
		assert.Equal(t, playback.StateReady, snap.State)
		assert.Equal(t, s.ID(), snap.SessionID)
		assert.Equal(t, 2, snap.TrackCount)

		require.NoError(t, s.Close())
		_, ok := <-s.Updates()
		assert.False(t, ok)
	})
}

func TestNewSession_ClosesPrevious(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(2)

		first, err := h.ctrl.Open(context.Background(), h.book)
		require.NoError(t, err)

		second := h.ctrl.NewSession(catalog.Audiobook{ID: "47", FeedURL: "https://librivox.org/rss/47"})
		defer second.Close()

		assert.ErrorIs(t, first.Play(), ErrSessionClosed)
		assert.False(t, h.engine.IsOpen())
		assert.NotEqual(t, first.ID(), second.ID())
		current, ok := h.ctrl.Current().Get()
		require.True(t, ok)
		assert.Same(t, second, current)
	})
}

func TestNewSession_ClosedSessionLeavesNextLoadAlone(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(2)
		releaseLookup := h.store.holdLookups(h.book.ID)
		first := h.ctrl.NewSession(h.book)

		firstErrc := make(chan error, 1)
		go func() { firstErrc <- first.Open(context.Background()) }()
		synctest.Wait()

		releaseOpen := h.engine.HoldOpen()
		second := h.ctrl.NewSession(catalog.Audiobook{ID: "47", FeedURL: "https://librivox.org/rss/47"})
		defer second.Close()
		secondErrc := make(chan error, 1)
		go func() { secondErrc <- second.Open(context.Background()) }()
		synctest.Wait()
		require.Equal(t, playback.StateLoading, second.Snapshot().State)

		releaseLookup()
		require.ErrorIs(t, <-firstErrc, ErrSessionClosed)
		synctest.Wait()

		releaseOpen()
		require.NoError(t, <-secondErrc)
		assert.Equal(t, playback.StateReady, second.Snapshot().State)
		assert.Equal(t, []string{trackURI(0)}, h.engine.OpenCalls())
		assert.True(t, h.engine.IsOpen())
	})
}
