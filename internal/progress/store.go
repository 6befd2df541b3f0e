package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"github.com/samber/mo"

	dbutil "github.com/llehouerou/folio/internal/db"
)

// Store is the SQLite-backed progress store.
type Store struct {
	db *sqlx.DB
}

// New creates a store on an opened and migrated database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type savedBookRow struct {
	ID                string        `db:"book_id"`
	Title             string        `db:"title"`
	CoverThumbnailURI string        `db:"cover_thumbnail_uri"`
	TrackIndex        sql.NullInt64 `db:"track_index"`
	PositionMS        sql.NullInt64 `db:"position_ms"`
	LastPlayedAt      sql.NullInt64 `db:"last_played_at"`
}

func (r savedBookRow) toSavedBook() SavedBook {
	b := SavedBook{
		ID:                r.ID,
		Title:             r.Title,
		CoverThumbnailURI: r.CoverThumbnailURI,
	}
	if r.TrackIndex.Valid {
		b.PlaybackState = &PlaybackState{
			TrackIndex:   int(r.TrackIndex.Int64),
			Position:     time.Duration(dbutil.NullInt64Value(r.PositionMS)) * time.Millisecond,
			LastPlayedAt: fromMillis(dbutil.NullInt64Value(r.LastPlayedAt)),
		}
	}
	return b
}

type playbackStateRow struct {
	TrackIndex   int64 `db:"track_index"`
	PositionMS   int64 `db:"position_ms"`
	LastPlayedAt int64 `db:"last_played_at"`
}

// SavedBooks returns the saved books in the order they were first saved.
func (s *Store) SavedBooks(ctx context.Context) ([]SavedBook, error) {
	var rows []savedBookRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT b.book_id, b.title, b.cover_thumbnail_uri,
		       p.track_index, p.position_ms, p.last_played_at
		FROM saved_books b
		LEFT JOIN playback_states p ON p.book_id = b.book_id
		ORDER BY b.seq
	`)
	if err != nil {
		return nil, persistErr("list saved books", err)
	}
	return lo.Map(rows, func(r savedBookRow, _ int) SavedBook {
		return r.toSavedBook()
	}), nil
}

// SaveBook inserts the book, or replaces the existing entry with the same id in place.
// A non-nil PlaybackState is stored in the same transaction. A nil PlaybackState
// leaves any stored progress for the book untouched.
func (s *Store) SaveBook(ctx context.Context, book SavedBook) error {
	err := dbutil.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO saved_books (book_id, title, cover_thumbnail_uri)
			VALUES (?, ?, ?)
			ON CONFLICT(book_id) DO UPDATE SET
				title = excluded.title,
				cover_thumbnail_uri = excluded.cover_thumbnail_uri
		`, book.ID, book.Title, book.CoverThumbnailURI)
		if err != nil {
			return err
		}
		if book.PlaybackState == nil {
			return nil
		}
		return upsertPlaybackState(ctx, tx, book.ID, *book.PlaybackState)
	})
	if err != nil {
		return persistErr("save book "+book.ID, err)
	}
	return nil
}

// RemoveBook removes the book from the saved list. Its resume point is kept so
// that re-saving the book later resumes where the user left off.
func (s *Store) RemoveBook(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saved_books WHERE book_id = ?`, id); err != nil {
		return persistErr("remove book "+id, err)
	}
	return nil
}

// SavePlaybackState stores the resume point of a book, saved or not.
func (s *Store) SavePlaybackState(ctx context.Context, id string, state PlaybackState) error {
	if err := upsertPlaybackState(ctx, s.db, id, state); err != nil {
		return persistErr("save playback state "+id, err)
	}
	return nil
}

// PlaybackState returns the resume point of a book, or None if it was never stored.
func (s *Store) PlaybackState(ctx context.Context, id string) (mo.Option[PlaybackState], error) {
	var row playbackStateRow
	err := s.db.GetContext(ctx, &row, `
		SELECT track_index, position_ms, last_played_at
		FROM playback_states WHERE book_id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return mo.None[PlaybackState](), nil
	}
	if err != nil {
		return mo.None[PlaybackState](), persistErr("get playback state "+id, err)
	}
	return mo.Some(PlaybackState{
		TrackIndex:   int(row.TrackIndex),
		Position:     time.Duration(row.PositionMS) * time.Millisecond,
		LastPlayedAt: fromMillis(row.LastPlayedAt),
	}), nil
}

func upsertPlaybackState(ctx context.Context, db sqlx.ExecerContext, id string, state PlaybackState) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO playback_states (book_id, track_index, position_ms, last_played_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			track_index = excluded.track_index,
			position_ms = excluded.position_ms,
			last_played_at = excluded.last_played_at
	`, id, state.TrackIndex, state.Position.Milliseconds(), state.LastPlayedAt.UnixMilli())
	return err
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
