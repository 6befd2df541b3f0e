// Package feed resolves a book's syndication feed into its ordered playable sections.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable is returned when the feed cannot be fetched.
	ErrUnavailable = errors.New("feed unavailable")
	// ErrMalformed is returned when the fetched document is not a feed.
	ErrMalformed = errors.New("feed malformed")
)

const userAgent = "folio-audiobook-player/1.0 (https://github.com/llehouerou/folio)"

// Track is one playable section of a book.
type Track struct {
	Index     int    // position in the resolved list, used as the persisted track index
	ItemIndex int    // position of the source item in the feed
	Title     string // item title, may be empty
	AudioURI  string
}

// Resolver fetches and parses feeds. Results are not cached.
type Resolver struct {
	httpClient *http.Client
	log        *zap.Logger
}

// NewResolver creates a resolver. A nil client gets a default one with a timeout.
func NewResolver(httpClient *http.Client, log *zap.Logger) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Resolver{httpClient: httpClient, log: log}
}

// ResolveTracks fetches feedURL once and returns the first enclosure of every item,
// in document order. Items without an enclosure are dropped.
func (r *Resolver) ResolveTracks(ctx context.Context, feedURL string) ([]Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status: %s", ErrUnavailable, resp.Status)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	tracks := Tracks(parsed)
	if dropped := len(parsed.Items) - len(tracks); dropped > 0 {
		r.log.Debug("feed items without enclosure dropped",
			zap.String("feed", feedURL), zap.Int("dropped", dropped), zap.Int("items", len(parsed.Items)))
	}
	return tracks, nil
}

// Tracks extracts the playable tracks of an already parsed feed.
func Tracks(f *gofeed.Feed) []Track {
	tracks := lo.FilterMap(f.Items, func(item *gofeed.Item, i int) (Track, bool) {
		uri := firstEnclosure(item)
		if uri == "" {
			return Track{}, false
		}
		return Track{ItemIndex: i, Title: strings.TrimSpace(item.Title), AudioURI: uri}, true
	})
	for i := range tracks {
		tracks[i].Index = i
	}
	return tracks
}

func firstEnclosure(item *gofeed.Item) string {
	if item == nil || len(item.Enclosures) == 0 || item.Enclosures[0] == nil {
		return ""
	}
	return strings.TrimSpace(item.Enclosures[0].URL)
}
