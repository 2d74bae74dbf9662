// Package spotify provides a client for the Spotify Web API personalization endpoints.
package spotify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	// maxTopItems is the page size limit of the top items endpoints.
	maxTopItems = 50
	// maxAudioFeatureIDs is the ID limit of one audio-features request.
	maxAudioFeatureIDs = 100
	// tokenRefreshTimeout bounds one access token refresh.
	tokenRefreshTimeout = 10 * time.Second
)

// Scopes are the OAuth scopes the taste profile needs.
var Scopes = []string{
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserReadPrivate,
}

// Client is a Spotify API client bound to one user's session.
type Client struct {
	client     *spotify.Client
	market     string
	timeRange  spotify.Range
	limit      int
	maxRetries uint
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string // Empty uses the account's market
	TimeRange    string // "short_term", "medium_term" or "long_term"
	Limit        int
}

// New creates a new Spotify client for the user owning RefreshToken.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(Scopes...),
	)

	// The token source refreshes the access token on demand.
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}
	// Token refreshes run on ctx rather than the request context, so they get
	// their own timeout.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: tokenRefreshTimeout})
	httpClient := auth.Client(ctx, token)

	return newClient(spotify.New(httpClient), cfg), nil
}

// newWithBaseURL creates a client against a custom API root. Used by tests.
func newWithBaseURL(httpClient *http.Client, baseURL string, cfg Config) *Client {
	return newClient(spotify.New(httpClient, spotify.WithBaseURL(baseURL)), cfg)
}

func newClient(client *spotify.Client, cfg Config) *Client {
	limit := cfg.Limit
	if limit <= 0 || limit > maxTopItems {
		limit = maxTopItems
	}

	return &Client{
		client:     client,
		market:     cfg.Market,
		timeRange:  parseTimeRange(cfg.TimeRange),
		limit:      limit,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// TopTracks returns the user's top tracks in ranked order.
func (c *Client) TopTracks(ctx context.Context) ([]spotify.FullTrack, error) {
	var page *spotify.FullTrackPage
	err := c.retry(ctx, func() error {
		p, err := c.client.CurrentUsersTopTracks(ctx, c.topTrackOptions()...)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get top tracks")
	}

	return page.Tracks, nil
}

// topTrackOptions leaves the market unset when none is configured, so the
// account's own market applies.
func (c *Client) topTrackOptions() []spotify.RequestOption {
	opts := []spotify.RequestOption{
		spotify.Limit(c.limit),
		spotify.Timerange(c.timeRange),
	}
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}
	return opts
}

// TopArtists returns the user's top artists in ranked order.
func (c *Client) TopArtists(ctx context.Context) ([]spotify.FullArtist, error) {
	var page *spotify.FullArtistPage
	err := c.retry(ctx, func() error {
		p, err := c.client.CurrentUsersTopArtists(ctx,
			spotify.Limit(c.limit),
			spotify.Timerange(c.timeRange),
		)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get top artists")
	}

	return page.Artists, nil
}

// AudioFeatures returns audio features keyed by track ID.
// Tracks Spotify has no analysis for are absent from the result.
func (c *Client) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]spotify.AudioFeatures, error) {
	ids := make([]spotify.ID, 0, len(trackIDs))
	for _, id := range trackIDs {
		if id != "" {
			ids = append(ids, spotify.ID(id))
		}
	}

	result := make(map[string]spotify.AudioFeatures, len(ids))

	// Spotify allows max 100 IDs per request
	for i := 0; i < len(ids); i += maxAudioFeatureIDs {
		end := i + maxAudioFeatureIDs
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]

		var features []*spotify.AudioFeatures
		err := c.retry(ctx, func() error {
			f, err := c.client.GetAudioFeatures(ctx, batch...)
			if err != nil {
				return err
			}
			features = f
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get audio features")
		}

		for _, f := range features {
			if f == nil || f.ID == "" {
				continue
			}
			result[string(f.ID)] = *f
		}
	}

	return result, nil
}

// retry retries an operation with linear backoff while the error is retryable.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	err := retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(c.retryDelay),
		retry.DelayType(func(n uint, _ error, config *retry.Config) time.Duration {
			return c.retryDelay * time.Duration(n+1)
		}),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
	)
	if err != nil && isRetryable(err) {
		return errors.Wrap(err, "max retries exceeded")
	}
	return err
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError
	}

	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// parseTimeRange maps the configured affinity window to the API range.
func parseTimeRange(value string) spotify.Range {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "short_term", "short":
		return spotify.ShortTermRange
	case "long_term", "long":
		return spotify.LongTermRange
	default:
		return spotify.MediumTermRange
	}
}
