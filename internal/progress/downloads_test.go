package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadedSections(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sec := func(i int, path string) DownloadedSection {
		return DownloadedSection{
			BookID:       "a",
			Index:        i,
			AudioURI:     "https://example.org/a.mp3",
			LocalPath:    path,
			Size:         1024,
			DownloadedAt: playedAt,
		}
	}
	require.NoError(t, s.MarkSectionDownloaded(ctx, sec(2, "/d/a/2.mp3")))
	require.NoError(t, s.MarkSectionDownloaded(ctx, sec(0, "/d/a/0.mp3")))
	require.NoError(t, s.MarkSectionDownloaded(ctx, sec(2, "/d/a/2-new.mp3")))

	list, err := s.DownloadedSections(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []DownloadedSection{sec(0, "/d/a/0.mp3"), sec(2, "/d/a/2-new.mp3")}, list)

	one, err := s.DownloadedSection(ctx, "a", 0)
	require.NoError(t, err)
	assert.Equal(t, "/d/a/0.mp3", one.MustGet().LocalPath)

	missing, err := s.DownloadedSection(ctx, "a", 1)
	require.NoError(t, err)
	assert.True(t, missing.IsAbsent())
}

func TestRemoveDownloads(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.MarkSectionDownloaded(ctx, DownloadedSection{
		BookID: "a", Index: 0, LocalPath: "/d/a/0.mp3", DownloadedAt: time.Now(),
	}))
	require.NoError(t, s.MarkSectionDownloaded(ctx, DownloadedSection{
		BookID: "b", Index: 0, LocalPath: "/d/b/0.mp3", DownloadedAt: time.Now(),
	}))

	removed, err := s.RemoveDownloads(ctx, "a")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "/d/a/0.mp3", removed[0].LocalPath)

	left, err := s.DownloadedSections(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, left)

	other, err := s.DownloadedSections(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
