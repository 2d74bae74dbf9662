// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// artistTagCacheEntry represents a cached artist tag result.
type artistTagCacheEntry struct {
	tags []Tag
}

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint
	retryDelay time.Duration

	// Cache for artist tags, shared by every user
	artistTagCache map[string]*artistTagCacheEntry
	cacheMu        sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey string
	// RequestsPerSecond limits outgoing calls. Last.fm asks for at most 5/s.
	RequestsPerSecond float64
}

// Tag represents a Last.fm tag.
type Tag struct {
	Name  string
	Count int // Tag count/frequency
}

// TopTrack represents one entry of a user's top tracks chart.
type TopTrack struct {
	Name        string
	Artist      string
	MBID        string
	PlayCount   int
	DurationSec int
	ImageURL    string
}

// TopArtist represents one entry of a user's top artists chart.
type TopArtist struct {
	Name      string
	MBID      string
	PlayCount int
	ImageURL  string
}

// count decodes Last.fm numbers, which arrive as strings or numbers.
type count int

func (c *count) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Malformed counts are treated as absent.
		*c = 0
		return nil
	}
	*c = count(n)
	return nil
}

type image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// largestImage returns the last non-empty image URL; Last.fm lists sizes ascending.
func largestImage(images []image) string {
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].URL != "" {
			return images[i].URL
		}
	}
	return ""
}

// userTopTracksResponse represents the response from user.getTopTracks API.
type userTopTracksResponse struct {
	TopTracks struct {
		Track []struct {
			Name      string  `json:"name"`
			MBID      string  `json:"mbid"`
			PlayCount count   `json:"playcount"`
			Duration  count   `json:"duration"`
			Image     []image `json:"image"`
			Artist    struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"track"`
	} `json:"toptracks"`
}

// userTopArtistsResponse represents the response from user.getTopArtists API.
type userTopArtistsResponse struct {
	TopArtists struct {
		Artist []struct {
			Name      string  `json:"name"`
			MBID      string  `json:"mbid"`
			PlayCount count   `json:"playcount"`
			Image     []image `json:"image"`
		} `json:"artist"`
	} `json:"topartists"`
}

// topTagsResponse represents the response from artist.getTopTags API.
type topTagsResponse struct {
	TopTags struct {
		Tag []struct {
			Name  string `json:"name"`
			Count count  `json:"count"`
		} `json:"tag"`
	} `json:"toptags"`
}

// LastFMError represents an error response from Last.fm API.
type LastFMError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *LastFMError) Error() string {
	return fmt.Sprintf("last.fm API error %d: %s", e.Code, e.Message)
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		apiKey:         cfg.APIKey,
		baseURL:        "https://ws.audioscrobbler.com/2.0/",
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries:     3,
		retryDelay:     500 * time.Millisecond,
		artistTagCache: make(map[string]*artistTagCacheEntry),
	}, nil
}

// UserTopTracks retrieves a user's most played tracks for a period.
// Reference: https://www.last.fm/api/show/user.getTopTracks
func (c *Client) UserTopTracks(ctx context.Context, user, period string, limit int) ([]TopTrack, error) {
	if user == "" {
		return nil, errors.New("user name is required")
	}

	params := url.Values{}
	params.Set("method", "user.getTopTracks")
	params.Set("user", user)
	params.Set("period", normalizePeriod(period))
	params.Set("limit", strconv.Itoa(clampLimit(limit, 50)))

	var response userTopTracksResponse
	if err := c.call(ctx, params, &response); err != nil {
		return nil, errors.Wrap(err, "failed to get user top tracks")
	}

	tracks := make([]TopTrack, 0, len(response.TopTracks.Track))
	for _, t := range response.TopTracks.Track {
		tracks = append(tracks, TopTrack{
			Name:        t.Name,
			Artist:      t.Artist.Name,
			MBID:        t.MBID,
			PlayCount:   int(t.PlayCount),
			DurationSec: int(t.Duration),
			ImageURL:    largestImage(t.Image),
		})
	}

	return tracks, nil
}

// UserTopArtists retrieves a user's most played artists for a period.
// Reference: https://www.last.fm/api/show/user.getTopArtists
func (c *Client) UserTopArtists(ctx context.Context, user, period string, limit int) ([]TopArtist, error) {
	if user == "" {
		return nil, errors.New("user name is required")
	}

	params := url.Values{}
	params.Set("method", "user.getTopArtists")
	params.Set("user", user)
	params.Set("period", normalizePeriod(period))
	params.Set("limit", strconv.Itoa(clampLimit(limit, 50)))

	var response userTopArtistsResponse
	if err := c.call(ctx, params, &response); err != nil {
		return nil, errors.Wrap(err, "failed to get user top artists")
	}

	artists := make([]TopArtist, 0, len(response.TopArtists.Artist))
	for _, a := range response.TopArtists.Artist {
		artists = append(artists, TopArtist{
			Name:      a.Name,
			MBID:      a.MBID,
			PlayCount: int(a.PlayCount),
			ImageURL:  largestImage(a.Image),
		})
	}

	return artists, nil
}

// ArtistTopTags retrieves the top tags for an artist.
// Reference: https://www.last.fm/api/show/artist.getTopTags
func (c *Client) ArtistTopTags(ctx context.Context, artistName string, limit int) ([]Tag, error) {
	if artistName == "" {
		return nil, errors.New("artist name is required")
	}
	limit = clampLimit(limit, 10)

	// Check cache first
	cacheKey := fmt.Sprintf("artisttag:%s:%d", strings.ToLower(artistName), limit)
	c.cacheMu.RLock()
	if entry, ok := c.artistTagCache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("using cached tags for artist: %s", artistName)
		return entry.tags, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{}
	params.Set("method", "artist.getTopTags")
	params.Set("artist", artistName)
	params.Set("autocorrect", "1")

	var response topTagsResponse
	if err := c.call(ctx, params, &response); err != nil {
		return nil, errors.Wrap(err, "failed to get artist top tags")
	}

	tags := make([]Tag, 0, limit)
	for i, t := range response.TopTags.Tag {
		if i >= limit {
			break
		}
		tags = append(tags, Tag{
			Name:  t.Name,
			Count: int(t.Count),
		})
	}

	// Cache the result
	c.cacheMu.Lock()
	c.artistTagCache[cacheKey] = &artistTagCacheEntry{
		tags: tags,
	}
	c.cacheMu.Unlock()
	zlog.Debug().Msgf("cached tags for artist: %s (count: %d)", artistName, len(tags))

	return tags, nil
}

// call performs one rate-limited, retried GET and decodes the body into out.
func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	reqURL := c.baseURL + "?" + params.Encode()

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

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	// Check for Last.fm API errors
	var apiError LastFMError
	if err := json.Unmarshal(body, &apiError); err == nil && apiError.Code != 0 {
		return nil, &apiError
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.Newf("last.fm HTTP status %d", resp.StatusCode)
	}

	return body, nil
}

// isRetryable reports whether a failed call may succeed on retry.
// Last.fm error 8 is "operation failed", 11 "service offline",
// 16 "temporarily unavailable" and 29 "rate limit exceeded".
func isRetryable(err error) bool {
	var apiErr *LastFMError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 8, 11, 16, 29:
			return true
		}
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "failed to send request") ||
		strings.Contains(errStr, "status 5")
}

// normalizePeriod maps a configured period to a value user.getTop* accepts.
func normalizePeriod(period string) string {
	switch period {
	case "7day", "1month", "3month", "6month", "12month", "overall":
		return period
	default:
		return "6month"
	}
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 100 {
		return 100
	}
	return limit
}
