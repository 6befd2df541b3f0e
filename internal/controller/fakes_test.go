package controller

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/catalog"
	"github.com/llehouerou/folio/internal/feed"
	"github.com/llehouerou/folio/internal/playback"
	"github.com/llehouerou/folio/internal/player"
	"github.com/llehouerou/folio/internal/progress"
)

type sectionKey struct {
	bookID string
	index  int
}

type fakeStore struct {
	mu        sync.Mutex
	states    map[string]progress.PlaybackState
	writes    []progress.PlaybackState
	downloads map[sectionKey]progress.DownloadedSection
	lookups   map[string]chan struct{}
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		states:    make(map[string]progress.PlaybackState),
		downloads: make(map[sectionKey]progress.DownloadedSection),
		lookups:   make(map[string]chan struct{}),
	}
}

func (f *fakeStore) PlaybackState(_ context.Context, id string) (mo.Option[progress.PlaybackState], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[id]
	if !ok {
		return mo.None[progress.PlaybackState](), nil
	}
	return mo.Some(st), nil
}

func (f *fakeStore) SavePlaybackState(_ context.Context, id string, state progress.PlaybackState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return fmt.Errorf("%w: save playback state: %w", progress.ErrPersistence, f.saveErr)
	}
	f.states[id] = state
	f.writes = append(f.writes, state)
	return nil
}

// DownloadedSection ignores ctx so that a held lookup outlives its session.
func (f *fakeStore) DownloadedSection(_ context.Context, bookID string, index int) (mo.Option[progress.DownloadedSection], error) {
	f.mu.Lock()
	gate := f.lookups[bookID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.downloads[sectionKey{bookID, index}]
	if !ok {
		return mo.None[progress.DownloadedSection](), nil
	}
	return mo.Some(d), nil
}

func (f *fakeStore) setState(id string, state progress.PlaybackState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = state
}

func (f *fakeStore) setSaveError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

func (f *fakeStore) addDownload(d progress.DownloadedSection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads[sectionKey{d.BookID, d.Index}] = d
}

// holdLookups blocks download lookups for bookID until release is called.
func (f *fakeStore) holdLookups(bookID string) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.lookups[bookID] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

// places returns the written states without their timestamps.
func (f *fakeStore) places() []progress.PlaybackState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]progress.PlaybackState, len(f.writes))
	for i, w := range f.writes {
		out[i] = progress.PlaybackState{TrackIndex: w.TrackIndex, Position: w.Position}
	}
	return out
}

func (f *fakeStore) lastPlace(t *testing.T) progress.PlaybackState {
	t.Helper()
	places := f.places()
	if len(places) == 0 {
		t.Fatal("no playback state written")
	}
	return places[len(places)-1]
}

type fakeResolver struct {
	mu     sync.Mutex
	tracks []feed.Track
	err    error
	gate   chan struct{}
	calls  int
}

func newFakeResolver(n int) *fakeResolver {
	tracks := make([]feed.Track, n)
	for i := range tracks {
		tracks[i] = feed.Track{
			Index:     i,
			ItemIndex: i,
			Title:     fmt.Sprintf("Chapter %d", i+1),
			AudioURI:  trackURI(i),
		}
	}
	return &fakeResolver{tracks: tracks}
}

func trackURI(i int) string {
	return fmt.Sprintf("https://x.org/%d.mp3", i)
}

// ResolveTracks ignores ctx so that tests can observe results arriving after
// the session was closed.
func (f *fakeResolver) ResolveTracks(_ context.Context, _ string) ([]feed.Track, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracks, f.err
}

func (f *fakeResolver) hold() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

type harness struct {
	engine   *player.Mock
	store    *fakeStore
	resolver *fakeResolver
	fs       afero.Fs
	ctrl     *Controller
	book     catalog.Audiobook
}

// newHarness must be called inside the synctest bubble.
func newHarness(tracks int) *harness {
	engine := player.NewMock()
	engine.SetDuration(10 * time.Minute)
	h := &harness{
		engine:   engine,
		store:    newFakeStore(),
		resolver: newFakeResolver(tracks),
		fs:       afero.NewMemMapFs(),
		book: catalog.Audiobook{
			ID:      "1594",
			Title:   "Letters from Egypt",
			FeedURL: "https://librivox.org/rss/1594",
		},
	}
	adapter := playback.New(engine, playback.DefaultStatusInterval, zap.NewNop())
	h.ctrl = New(h.resolver, h.store, adapter, Options{
		ProgressInterval: 5 * time.Second,
		SkipStep:         10 * time.Second,
		FS:               h.fs,
	}, zap.NewNop())
	return h
}
