package adapter

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/infra/applemusic"
	"github.com/osa030/tastemix/internal/infra/lastfm"
)

// Fetcher retrieves one service's raw listening data for one user.
type Fetcher interface {
	Service() source.Service
	Fetch(ctx context.Context) (Payload, error)
}

// SpotifyAPI is the subset of the Spotify client used by SpotifyFetcher.
type SpotifyAPI interface {
	TopTracks(ctx context.Context) ([]spotify.FullTrack, error)
	TopArtists(ctx context.Context) ([]spotify.FullArtist, error)
	AudioFeatures(ctx context.Context, trackIDs []string) (map[string]spotify.AudioFeatures, error)
}

// SpotifyFetcher fetches top tracks, top artists and audio features.
type SpotifyFetcher struct {
	api SpotifyAPI
}

// NewSpotifyFetcher creates a SpotifyFetcher.
func NewSpotifyFetcher(api SpotifyAPI) *SpotifyFetcher {
	return &SpotifyFetcher{api: api}
}

func (f *SpotifyFetcher) Service() source.Service { return source.ServiceSpotify }

// Fetch retrieves the payload. Audio features are optional: a failed lookup
// leaves the tracks without descriptors.
func (f *SpotifyFetcher) Fetch(ctx context.Context) (Payload, error) {
	tracks, err := f.api.TopTracks(ctx)
	if err != nil {
		return nil, err
	}
	artists, err := f.api.TopArtists(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, string(t.ID))
	}

	var features map[string]spotify.AudioFeatures
	if len(ids) > 0 {
		features, err = f.api.AudioFeatures(ctx, ids)
		if err != nil {
			zlog.Warn().Err(err).Msgf("audio features unavailable: tracks=%d", len(ids))
			features = nil
		}
	}

	return SpotifyPayload{Tracks: tracks, Artists: artists, Features: features}, nil
}

// AppleMusicAPI is the subset of the Apple Music client used by AppleMusicFetcher.
type AppleMusicAPI interface {
	RecentlyPlayedTracks(ctx context.Context, limit int) ([]applemusic.Song, error)
}

// AppleMusicFetcher fetches the recently played history.
type AppleMusicFetcher struct {
	api   AppleMusicAPI
	limit int
}

// NewAppleMusicFetcher creates an AppleMusicFetcher reading up to limit plays.
// A limit of 0 leaves the choice to the client.
func NewAppleMusicFetcher(api AppleMusicAPI, limit int) *AppleMusicFetcher {
	return &AppleMusicFetcher{api: api, limit: limit}
}

func (f *AppleMusicFetcher) Service() source.Service { return source.ServiceAppleMusic }

func (f *AppleMusicFetcher) Fetch(ctx context.Context) (Payload, error) {
	history, err := f.api.RecentlyPlayedTracks(ctx, f.limit)
	if err != nil {
		return nil, err
	}
	return AppleMusicPayload{History: history}, nil
}

// LastFmAPI is the subset of the Last.fm client used by LastFmFetcher.
type LastFmAPI interface {
	UserTopTracks(ctx context.Context, user, period string, limit int) ([]lastfm.TopTrack, error)
	UserTopArtists(ctx context.Context, user, period string, limit int) ([]lastfm.TopArtist, error)
	ArtistTopTags(ctx context.Context, artistName string, limit int) ([]lastfm.Tag, error)
}

// LastFmOptions tune LastFmFetcher.
type LastFmOptions struct {
	Period string
	Limit  int
	// TagLimit is the number of tags read per artist.
	TagLimit int
	// TagArtists is the number of top artists whose tags are read.
	TagArtists int
}

const (
	defaultTagLimit   = 5
	defaultTagArtists = 20
	// tagBudgetShare is the share of the remaining fetch time that tag
	// lookups may use.
	tagBudgetShare = 0.8
)

// LastFmFetcher fetches top charts and per-artist tags for one Last.fm user.
type LastFmFetcher struct {
	api      LastFmAPI
	username string
	opts     LastFmOptions
}

// NewLastFmFetcher creates a LastFmFetcher.
func NewLastFmFetcher(api LastFmAPI, username string, opts LastFmOptions) *LastFmFetcher {
	if opts.TagLimit <= 0 {
		opts.TagLimit = defaultTagLimit
	}
	if opts.TagArtists <= 0 {
		opts.TagArtists = defaultTagArtists
	}
	return &LastFmFetcher{api: api, username: username, opts: opts}
}

func (f *LastFmFetcher) Service() source.Service { return source.ServiceLastFm }

// Fetch retrieves the payload. Tags are read for the top TagArtists artists
// only, within a share of the time left before ctx's deadline. Tag lookups
// that fail or run out of time are skipped; the charts are returned either way.
func (f *LastFmFetcher) Fetch(ctx context.Context) (Payload, error) {
	if f.username == "" {
		return nil, errors.New("last.fm username is not configured")
	}

	tracks, err := f.api.UserTopTracks(ctx, f.username, f.opts.Period, f.opts.Limit)
	if err != nil {
		return nil, err
	}
	artists, err := f.api.UserTopArtists(ctx, f.username, f.opts.Period, f.opts.Limit)
	if err != nil {
		return nil, err
	}

	return LastFmPayload{Tracks: tracks, Artists: artists, Tags: f.fetchTags(ctx, artists)}, nil
}

func (f *LastFmFetcher) fetchTags(ctx context.Context, artists []lastfm.TopArtist) map[string][]lastfm.Tag {
	if deadline, ok := ctx.Deadline(); ok {
		budget := time.Duration(float64(time.Until(deadline)) * tagBudgetShare)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	tags := make(map[string][]lastfm.Tag, f.opts.TagArtists)
	looked := 0
	for _, a := range artists {
		if looked >= f.opts.TagArtists {
			break
		}
		if a.Name == "" {
			continue
		}
		if ctx.Err() != nil {
			zlog.Debug().Msgf("tag budget spent: tagged=%d artists=%d", len(tags), len(artists))
			break
		}
		looked++

		t, err := f.api.ArtistTopTags(ctx, a.Name, f.opts.TagLimit)
		if err != nil {
			zlog.Debug().Err(err).Msgf("skipping tags: artist=%s", a.Name)
			continue
		}
		tags[a.Name] = t
	}
	return tags
}
