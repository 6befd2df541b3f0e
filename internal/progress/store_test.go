package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbutil "github.com/llehouerou/folio/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := dbutil.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

var playedAt = time.Date(2024, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func TestSavedBooks_Empty(t *testing.T) {
	s := newTestStore(t)

	books, err := s.SavedBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestSaveBook_UpsertsInPlace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveBook(ctx, SavedBook{ID: "a", Title: "Letters from Egypt"}))
	require.NoError(t, s.SaveBook(ctx, SavedBook{ID: "b", Title: "Walden"}))
	require.NoError(t, s.SaveBook(ctx, SavedBook{ID: "a", Title: "Letters from Egypt (v2)", CoverThumbnailURI: "thumb.jpg"}))

	books, err := s.SavedBooks(ctx)
	require.NoError(t, err)

	want := []SavedBook{
		{ID: "a", Title: "Letters from Egypt (v2)", CoverThumbnailURI: "thumb.jpg"},
		{ID: "b", Title: "Walden"},
	}
	if diff := cmp.Diff(want, books); diff != "" {
		t.Errorf("SavedBooks() mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveBook(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveBook(ctx, SavedBook{ID: "a", Title: "A"}))
	require.NoError(t, s.SaveBook(ctx, SavedBook{ID: "b", Title: "B"}))

	require.NoError(t, s.RemoveBook(ctx, "a"))
	require.NoError(t, s.RemoveBook(ctx, "missing"))

	books, err := s.SavedBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "b", books[0].ID)
}

func TestPlaybackState_AbsentIsNone(t *testing.T) {
	s := newTestStore(t)

	state, err := s.PlaybackState(context.Background(), "nope")
	require.NoError(t, err)
	assert.True(t, state.IsAbsent())
}

func TestSavePlaybackState_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	want := PlaybackState{TrackIndex: 4, Position: 83_250 * time.Millisecond, LastPlayedAt: playedAt}

	require.NoError(t, s.SavePlaybackState(ctx, "unsaved", want))

	got, err := s.PlaybackState(ctx, "unsaved")
	require.NoError(t, err)
	assert.Equal(t, want, got.MustGet())

	// Progress of an unsaved book does not show up in the library.
	books, err := s.SavedBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestSavePlaybackState_SavedViewMatches(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveBook(ctx, SavedBook{ID: "a", Title: "A"}))

	first := PlaybackState{TrackIndex: 1, Position: time.Second, LastPlayedAt: playedAt}
	second := PlaybackState{TrackIndex: 2, Position: 5 * time.Second, LastPlayedAt: playedAt.Add(time.Minute)}
	require.NoError(t, s.SavePlaybackState(ctx, "a", first))
	require.NoError(t, s.SavePlaybackState(ctx, "a", second))

	got, err := s.PlaybackState(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, second, got.MustGet())

	books, err := s.SavedBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.NotNil(t, books[0].PlaybackState)
	assert.Equal(t, second, *books[0].PlaybackState)
}

func TestSaveBook_AdoptsEarlierProgress(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	state := PlaybackState{TrackIndex: 3, Position: 42 * time.Second, LastPlayedAt: playedAt}
	require.NoError(t, s.SavePlaybackState(ctx, "a", state))

	require.NoError(t, s.SaveBook(ctx, SavedBook{ID: "a", Title: "A"}))

	books, err := s.SavedBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.NotNil(t, books[0].PlaybackState)
	assert.Equal(t, state, *books[0].PlaybackState)
}

func TestSaveBook_WithStateWritesBothViews(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	state := PlaybackState{TrackIndex: 0, Position: 10 * time.Second, LastPlayedAt: playedAt}

	require.NoError(t, s.SaveBook(ctx, SavedBook{ID: "a", Title: "A", PlaybackState: &state}))

	got, err := s.PlaybackState(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, state, got.MustGet())
}

func TestSaveBook_FailedWriteLeavesPriorState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveBook(ctx, SavedBook{ID: "a", Title: "Original"}))

	// The negative index violates the schema after the book row was already updated
	// inside the transaction.
	bad := PlaybackState{TrackIndex: -1, LastPlayedAt: playedAt}
	err := s.SaveBook(ctx, SavedBook{ID: "a", Title: "Changed", PlaybackState: &bad})
	require.ErrorIs(t, err, ErrPersistence)

	books, err := s.SavedBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Original", books[0].Title)
	assert.Nil(t, books[0].PlaybackState)
}

func TestSavePlaybackState_StorageFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	s := New(sqlx.NewDb(mockDB, "sqlmock"))

	diskFull := errors.New("database or disk is full")
	mock.ExpectExec("INSERT INTO playback_states").WillReturnError(diskFull)

	err = s.SavePlaybackState(context.Background(), "a", PlaybackState{LastPlayedAt: playedAt})

	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, diskFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBook_RollsBackOnStorageFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	s := New(sqlx.NewDb(mockDB, "sqlmock"))

	state := PlaybackState{TrackIndex: 1, LastPlayedAt: playedAt}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO saved_books").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO playback_states").WillReturnError(errors.New("io error"))
	mock.ExpectRollback()

	err = s.SaveBook(context.Background(), SavedBook{ID: "a", Title: "A", PlaybackState: &state})

	require.ErrorIs(t, err, ErrPersistence)
	require.NoError(t, mock.ExpectationsWereMet())
}
