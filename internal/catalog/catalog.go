// Package catalog provides a client for the LibriVox audiobook catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

var (
	// ErrNotFound is returned when a book id does not exist.
	ErrNotFound = errors.New("audiobook not found")
	// ErrUnexpectedStatus is returned for non-success responses.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

const (
	DefaultBaseURL = "https://librivox.org/api/feed/audiobooks/"
	userAgent      = "folio-audiobook-player/1.0 (https://github.com/llehouerou/folio)"
)

// Author is a book author, in catalog order.
type Author struct {
	ID        string
	FirstName string
	LastName  string
}

// Name returns "First Last".
func (a Author) Name() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// Audiobook is a catalog record. It is read-only reference data.
type Audiobook struct {
	ID               string
	Title            string
	Description      string
	Language         string
	Authors          []Author
	FeedURL          string
	NumSections      int
	TotalTime        string
	TotalTimeSeconds int
	CoverArt         string
	CoverThumbnail   string
}

// AuthorNames joins the author names with ", ".
func (b Audiobook) AuthorNames() string {
	return strings.Join(lo.Map(b.Authors, func(a Author, _ int) string { return a.Name() }), ", ")
}

// TotalDuration returns the runtime of the whole book.
func (b Audiobook) TotalDuration() time.Duration {
	return time.Duration(b.TotalTimeSeconds) * time.Second
}

type apiAuthor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type apiBook struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Language          string      `json:"language"`
	NumSections       string      `json:"num_sections"`
	URLRSS            string      `json:"url_rss"`
	TotalTime         string      `json:"totaltime"`
	TotalTimeSecs     int         `json:"totaltimesecs"`
	Authors           []apiAuthor `json:"authors"`
	CoverArtJPG       string      `json:"coverart_jpg"`
	CoverArtThumbnail string      `json:"coverart_thumbnail"`
}

type envelope struct {
	Books []apiBook `json:"books"`
	Error string    `json:"error"`
}

func (b apiBook) toAudiobook() Audiobook {
	sections, _ := strconv.Atoi(strings.TrimSpace(b.NumSections))
	return Audiobook{
		ID:               b.ID,
		Title:            strings.TrimSpace(b.Title),
		Description:      b.Description,
		Language:         b.Language,
		FeedURL:          b.URLRSS,
		NumSections:      sections,
		TotalTime:        b.TotalTime,
		TotalTimeSeconds: b.TotalTimeSecs,
		CoverArt:         b.CoverArtJPG,
		CoverThumbnail:   b.CoverArtThumbnail,
		Authors: lo.Map(b.Authors, func(a apiAuthor, _ int) Author {
			return Author{ID: a.ID, FirstName: strings.TrimSpace(a.FirstName), LastName: strings.TrimSpace(a.LastName)}
		}),
	}
}

// Client is a LibriVox API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

// Search returns books whose title starts with title.
func (c *Client) Search(ctx context.Context, title string, offset, limit int) ([]Audiobook, error) {
	params := pageParams(offset, limit)
	books, err := c.get(ctx, "title/"+url.PathEscape("^"+title), params)
	if errors.Is(err, ErrNotFound) {
		return []Audiobook{}, nil
	}
	return books, err
}

// Featured returns the catalog's default listing.
func (c *Client) Featured(ctx context.Context, offset, limit int) ([]Audiobook, error) {
	books, err := c.get(ctx, "", pageParams(offset, limit))
	if errors.Is(err, ErrNotFound) {
		return []Audiobook{}, nil
	}
	return books, err
}

// Get returns a single book by id.
func (c *Client) Get(ctx context.Context, id string) (*Audiobook, error) {
	params := url.Values{}
	params.Set("id", id)
	books, err := c.get(ctx, "", params)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return &books[0], nil
}

func pageParams(offset, limit int) url.Values {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(max(offset, 0)))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]Audiobook, error) {
	params.Set("coverart", "1")
	params.Set("format", "json")
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return lo.Map(env.Books, func(b apiBook, _ int) Audiobook { return b.toAudiobook() }), nil
}
