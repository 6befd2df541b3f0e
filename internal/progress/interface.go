package progress

import (
	"context"

	"github.com/samber/mo"
)

// Interface defines the progress store contract for dependency injection and testing.
type Interface interface {
	SavedBooks(ctx context.Context) ([]SavedBook, error)
	SaveBook(ctx context.Context, book SavedBook) error
	RemoveBook(ctx context.Context, id string) error
	SavePlaybackState(ctx context.Context, id string, state PlaybackState) error
	PlaybackState(ctx context.Context, id string) (mo.Option[PlaybackState], error)

	MarkSectionDownloaded(ctx context.Context, d DownloadedSection) error
	DownloadedSections(ctx context.Context, bookID string) ([]DownloadedSection, error)
	DownloadedSection(ctx context.Context, bookID string, index int) (mo.Option[DownloadedSection], error)
	RemoveDownloads(ctx context.Context, bookID string) ([]DownloadedSection, error)
}

// Verify Store implements Interface at compile time.
var _ Interface = (*Store)(nil)
