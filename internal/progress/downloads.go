package progress

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"github.com/samber/mo"

	dbutil "github.com/llehouerou/folio/internal/db"
)

type downloadRow struct {
	BookID       string `db:"book_id"`
	Index        int    `db:"section_index"`
	AudioURI     string `db:"audio_uri"`
	LocalPath    string `db:"local_path"`
	Size         int64  `db:"size_bytes"`
	DownloadedAt int64  `db:"downloaded_at"`
}

func (r downloadRow) toSection() DownloadedSection {
	return DownloadedSection{
		BookID:       r.BookID,
		Index:        r.Index,
		AudioURI:     r.AudioURI,
		LocalPath:    r.LocalPath,
		Size:         r.Size,
		DownloadedAt: fromMillis(r.DownloadedAt),
	}
}

const downloadColumns = `book_id, section_index, audio_uri, local_path, size_bytes, downloaded_at`

// MarkSectionDownloaded records (or re-records) a section stored on disk.
func (s *Store) MarkSectionDownloaded(ctx context.Context, d DownloadedSection) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO downloaded_sections (`+downloadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_id, section_index) DO UPDATE SET
			audio_uri = excluded.audio_uri,
			local_path = excluded.local_path,
			size_bytes = excluded.size_bytes,
			downloaded_at = excluded.downloaded_at
	`, d.BookID, d.Index, d.AudioURI, d.LocalPath, d.Size, d.DownloadedAt.UnixMilli())
	if err != nil {
		return persistErr("mark section downloaded "+d.BookID, err)
	}
	return nil
}

// DownloadedSections lists the downloaded sections of a book by section index.
func (s *Store) DownloadedSections(ctx context.Context, bookID string) ([]DownloadedSection, error) {
	var rows []downloadRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+downloadColumns+` FROM downloaded_sections WHERE book_id = ? ORDER BY section_index`, bookID)
	if err != nil {
		return nil, persistErr("list downloaded sections "+bookID, err)
	}
	return lo.Map(rows, func(r downloadRow, _ int) DownloadedSection { return r.toSection() }), nil
}

// DownloadedSection returns the download record of one section, if any.
func (s *Store) DownloadedSection(ctx context.Context, bookID string, index int) (mo.Option[DownloadedSection], error) {
	var row downloadRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+downloadColumns+` FROM downloaded_sections WHERE book_id = ? AND section_index = ?`, bookID, index)
	if errors.Is(err, sql.ErrNoRows) {
		return mo.None[DownloadedSection](), nil
	}
	if err != nil {
		return mo.None[DownloadedSection](), persistErr("get downloaded section "+bookID, err)
	}
	return mo.Some(row.toSection()), nil
}

// RemoveDownloads deletes the download records of a book and returns them so the
// caller can remove the files.
func (s *Store) RemoveDownloads(ctx context.Context, bookID string) ([]DownloadedSection, error) {
	var rows []downloadRow
	err := dbutil.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &rows,
			`SELECT `+downloadColumns+` FROM downloaded_sections WHERE book_id = ? ORDER BY section_index`, bookID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM downloaded_sections WHERE book_id = ?`, bookID)
		return err
	})
	if err != nil {
		return nil, persistErr("remove downloads "+bookID, err)
	}
	return lo.Map(rows, func(r downloadRow, _ int) DownloadedSection { return r.toSection() }), nil
}
