// Package applemusic provides a client for the Apple Music API listening history.
package applemusic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	// pageLimit is the maximum page size of the recently played endpoint.
	pageLimit = 30
	// maxHistory caps how many played tracks are read per fetch.
	maxHistory = 150
)

// Client is an Apple Music API client bound to one user's music token.
type Client struct {
	developerToken string
	userToken      string
	historyLimit   int
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     uint
	retryDelay     time.Duration
}

// Config represents Apple Music client configuration.
type Config struct {
	DeveloperToken string
	UserToken      string
	// HistoryLimit is the number of plays read when a call passes no limit.
	HistoryLimit int
}

// Artwork is an image template; {w} and {h} are substituted by size.
type Artwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SongAttributes are the attributes of a song resource.
type SongAttributes struct {
	Name             string   `json:"name"`
	ArtistName       string   `json:"artistName"`
	AlbumName        string   `json:"albumName"`
	DurationInMillis int      `json:"durationInMillis"`
	ISRC             string   `json:"isrc"`
	GenreNames       []string `json:"genreNames"`
	Artwork          *Artwork `json:"artwork"`
}

// CatalogRelationship links a library song to its catalog counterpart.
type CatalogRelationship struct {
	Data []struct {
		ID         string         `json:"id"`
		Attributes SongAttributes `json:"attributes"`
	} `json:"data"`
}

// Song is a song resource as returned in listening history.
// Catalog songs carry ISRC in attributes; library songs only through the
// catalog relationship.
type Song struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"` // "songs" or "library-songs"
	Attributes    SongAttributes `json:"attributes"`
	Relationships struct {
		Catalog *CatalogRelationship `json:"catalog"`
	} `json:"relationships"`
}

type songsResponse struct {
	Data []Song `json:"data"`
	Next string `json:"next"`
}

type errorsResponse struct {
	Errors []struct {
		Status string `json:"status"`
		Code   string `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// APIError represents an error response from the Apple Music API.
type APIError struct {
	StatusCode int
	Title      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apple music API error %d: %s", e.StatusCode, e.Title)
}

// New creates a new Apple Music client.
func New(cfg Config) (*Client, error) {
	if cfg.DeveloperToken == "" || cfg.UserToken == "" {
		return nil, errors.New("apple music developer token and user token are required")
	}

	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 || historyLimit > maxHistory {
		historyLimit = maxHistory
	}

	return &Client{
		developerToken: cfg.DeveloperToken,
		userToken:      cfg.UserToken,
		historyLimit:   historyLimit,
		baseURL:        "https://api.music.apple.com/v1/",
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		limiter:        rate.NewLimiter(rate.Limit(10), 2),
		maxRetries:     3,
		retryDelay:     500 * time.Millisecond,
	}, nil
}

// RecentlyPlayedTracks returns the user's recently played songs, newest first.
// Up to limit songs are read, following pagination. A limit of 0 uses the
// configured history limit.
// Reference: https://developer.apple.com/documentation/applemusicapi/get-recently-played-tracks
func (c *Client) RecentlyPlayedTracks(ctx context.Context, limit int) ([]Song, error) {
	if limit <= 0 {
		limit = c.historyLimit
	}
	if limit > maxHistory {
		limit = maxHistory
	}

	songs := make([]Song, 0, limit)
	for offset := 0; offset < limit; offset += pageLimit {
		pageSize := pageLimit
		if limit-offset < pageSize {
			pageSize = limit - offset
		}

		params := url.Values{}
		params.Set("types", "songs,library-songs")
		params.Set("include[library-songs]", "catalog")
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(offset))

		var page songsResponse
		if err := c.call(ctx, "me/recent/played/tracks", params, &page); err != nil {
			return nil, errors.Wrap(err, "failed to get recently played tracks")
		}

		songs = append(songs, page.Data...)
		if page.Next == "" || len(page.Data) < pageSize {
			break
		}
	}

	return songs, nil
}

// call performs one rate-limited, retried GET and decodes the body into out.
func (c *Client) call(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	var body []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			b, err := c.get(ctx, reqURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(c.retryDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(errors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("Authorization", "Bearer "+c.developerToken)
	req.Header.Set("Music-User-Token", c.userToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		var errs errorsResponse
		if err := json.Unmarshal(body, &errs); err == nil && len(errs.Errors) > 0 {
			apiErr.Title = strings.TrimSpace(errs.Errors[0].Title + " " + errs.Errors[0].Detail)
		}
		return nil, apiErr
	}

	return body, nil
}

// isRetryable reports whether a failed call may succeed on retry.
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return strings.Contains(err.Error(), "failed to send request")
}

// ArtworkURL renders an artwork template at the given square size.
func ArtworkURL(a *Artwork, size int) string {
	if a == nil || a.URL == "" {
		return ""
	}
	s := strconv.Itoa(size)
	return strings.NewReplacer("{w}", s, "{h}", s).Replace(a.URL)
}
