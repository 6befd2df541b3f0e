// Package downloads keeps offline copies of book sections on disk and records
// them in the progress store.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/mo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/llehouerou/folio/internal/feed"
	"github.com/llehouerou/folio/internal/progress"
)

// ErrDownload is returned when a section can not be fetched or written.
var ErrDownload = errors.New("download failed")

const userAgent = "folio-audiobook-player/1.0 (https://github.com/llehouerou/folio)"

// Store records downloaded sections.
type Store interface {
	MarkSectionDownloaded(ctx context.Context, d progress.DownloadedSection) error
	DownloadedSections(ctx context.Context, bookID string) ([]progress.DownloadedSection, error)
	DownloadedSection(ctx context.Context, bookID string, index int) (mo.Option[progress.DownloadedSection], error)
	RemoveDownloads(ctx context.Context, bookID string) ([]progress.DownloadedSection, error)
}

var _ Store = (*progress.Store)(nil)

// Progress reports the transfer of one section.
type Progress struct {
	Track   feed.Track
	Written int64
	// Total is -1 when the server does not announce a length.
	Total int64
}

// Percent returns the completed share in [0, 100], or 0 when unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Written) / float64(p.Total) * 100
}

// String formats the transfer as "1.2 MB / 3.4 MB".
func (p Progress) String() string {
	if p.Total < 0 {
		return humanize.Bytes(uint64(p.Written))
	}
	return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(p.Written)), humanize.Bytes(uint64(p.Total)))
}

// Manager downloads sections into <root>/<bookID>/<index>.mp3.
type Manager struct {
	fs         afero.Fs
	root       string
	store      Store
	httpClient *http.Client
	log        *zap.Logger
}

// New creates a manager rooted at root on fs.
func New(fs afero.Fs, root string, store Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		fs:         fs,
		root:       root,
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Minute},
		log:        log,
	}
}

// SectionPath returns where section index of book is stored.
func (m *Manager) SectionPath(bookID string, index int) string {
	return filepath.Join(m.BookDir(bookID), strconv.Itoa(index)+".mp3")
}

// BookDir returns the directory holding the sections of book.
func (m *Manager) BookDir(bookID string) string {
	return filepath.Join(m.root, bookID)
}

// Download fetches track and records it. An existing recorded copy that is
// still on disk is returned without refetching. onProgress may be nil.
func (m *Manager) Download(
	ctx context.Context,
	bookID string,
	track feed.Track,
	onProgress func(Progress),
) (progress.DownloadedSection, error) {
	existing, err := m.store.DownloadedSection(ctx, bookID, track.Index)
	if err != nil {
		return progress.DownloadedSection{}, err
	}
	if d, ok := existing.Get(); ok {
		if fi, err := m.fs.Stat(d.LocalPath); err == nil && fi.Size() == d.Size {
			return d, nil
		}
	}

	path := m.SectionPath(bookID, track.Index)
	size, err := m.fetch(ctx, track, path, onProgress)
	if err != nil {
		return progress.DownloadedSection{}, err
	}

	d := progress.DownloadedSection{
		BookID:       bookID,
		Index:        track.Index,
		AudioURI:     track.AudioURI,
		LocalPath:    path,
		Size:         size,
		DownloadedAt: time.Now().UTC(),
	}
	if err := m.store.MarkSectionDownloaded(ctx, d); err != nil {
		_ = m.fs.Remove(path)
		return progress.DownloadedSection{}, err
	}
	m.log.Info("section downloaded",
		zap.String("book", bookID),
		zap.Int("track", track.Index),
		zap.String("size", humanize.Bytes(uint64(size))))
	return d, nil
}

// fetch streams track into a temporary file next to path and renames it into
// place once complete, so path never holds a partial section.
func (m *Manager) fetch(ctx context.Context, track feed.Track, path string, onProgress func(Progress)) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.AudioURI, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("%w: create request: %w", ErrDownload, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrDownload, track.AudioURI, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s: status %s", ErrDownload, track.AudioURI, resp.Status)
	}

	if err := m.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("%w: create directory: %w", ErrDownload, err)
	}
	tmp, err := afero.TempFile(m.fs, filepath.Dir(path), ".section-*")
	if err != nil {
		return 0, fmt.Errorf("%w: create temp file: %w", ErrDownload, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = m.fs.Remove(tmpPath) }()

	w := &progressWriter{
		w:          tmp,
		progress:   Progress{Track: track, Total: resp.ContentLength},
		onProgress: onProgress,
	}
	_, copyErr := io.Copy(w, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrDownload, track.AudioURI, copyErr)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("%w: write %s: %w", ErrDownload, tmpPath, closeErr)
	}
	if err := m.fs.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("%w: rename into place: %w", ErrDownload, err)
	}
	return w.progress.Written, nil
}

type progressWriter struct {
	w          io.Writer
	progress   Progress
	onProgress func(Progress)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.progress.Written += int64(n)
	if p.onProgress != nil {
		p.onProgress(p.progress)
	}
	return n, err
}

// Missing returns the recorded sections of book whose file is gone or has a
// different size than recorded.
func (m *Manager) Missing(ctx context.Context, bookID string) ([]progress.DownloadedSection, error) {
	sections, err := m.store.DownloadedSections(ctx, bookID)
	if err != nil {
		return nil, err
	}
	var missing []progress.DownloadedSection
	for _, d := range sections {
		fi, err := m.fs.Stat(d.LocalPath)
		if err != nil || fi.Size() != d.Size {
			missing = append(missing, d)
		}
	}
	return missing, nil
}

// Purge forgets every downloaded section of book and deletes its files.
func (m *Manager) Purge(ctx context.Context, bookID string) (int, error) {
	removed, err := m.store.RemoveDownloads(ctx, bookID)
	if err != nil {
		return 0, err
	}
	for _, d := range removed {
		if err := m.fs.Remove(d.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.log.Warn("remove section file", zap.String("path", d.LocalPath), zap.Error(err))
		}
	}
	if err := m.fs.RemoveAll(m.BookDir(bookID)); err != nil {
		return len(removed), fmt.Errorf("remove %s: %w", m.BookDir(bookID), err)
	}
	return len(removed), nil
}
