package adapter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/infra/applemusic"
	"github.com/osa030/tastemix/internal/infra/lastfm"
)

type fakeSpotify struct {
	tracks      []spotify.FullTrack
	artists     []spotify.FullArtist
	features    map[string]spotify.AudioFeatures
	tracksErr   error
	featuresErr error
	featureIDs  []string
}

func (f *fakeSpotify) TopTracks(ctx context.Context) ([]spotify.FullTrack, error) {
	return f.tracks, f.tracksErr
}

func (f *fakeSpotify) TopArtists(ctx context.Context) ([]spotify.FullArtist, error) {
	return f.artists, nil
}

func (f *fakeSpotify) AudioFeatures(ctx context.Context, ids []string) (map[string]spotify.AudioFeatures, error) {
	f.featureIDs = ids
	return f.features, f.featuresErr
}

func TestSpotifyFetcher_Fetch(t *testing.T) {
	api := &fakeSpotify{
		tracks:   spotifyTracks(t, `[{"id": "sp-1", "name": "A"}, {"id": "sp-2", "name": "B"}]`),
		features: map[string]spotify.AudioFeatures{"sp-1": {Energy: 0.5}},
	}

	fetcher := NewSpotifyFetcher(api)
	assert.Equal(t, source.ServiceSpotify, fetcher.Service())

	payload, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)

	p, ok := payload.(SpotifyPayload)
	require.True(t, ok)
	assert.Len(t, p.Tracks, 2)
	assert.Len(t, p.Features, 1)
	assert.Equal(t, []string{"sp-1", "sp-2"}, api.featureIDs)
}

func TestSpotifyFetcher_FeaturesFailureTolerated(t *testing.T) {
	api := &fakeSpotify{
		tracks:      spotifyTracks(t, `[{"id": "sp-1", "name": "A"}]`),
		featuresErr: errors.New("403 forbidden"),
	}

	payload, err := NewSpotifyFetcher(api).Fetch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, payload.(SpotifyPayload).Features)
}

func TestSpotifyFetcher_TracksFailure(t *testing.T) {
	api := &fakeSpotify{tracksErr: errors.New("boom")}

	_, err := NewSpotifyFetcher(api).Fetch(context.Background())
	assert.Error(t, err)
}

type fakeAppleMusic struct {
	limit int
	songs []applemusic.Song
}

func (f *fakeAppleMusic) RecentlyPlayedTracks(ctx context.Context, limit int) ([]applemusic.Song, error) {
	f.limit = limit
	return f.songs, nil
}

func TestAppleMusicFetcher_Fetch(t *testing.T) {
	api := &fakeAppleMusic{songs: []applemusic.Song{{ID: "1"}}}

	fetcher := NewAppleMusicFetcher(api, 90)
	assert.Equal(t, source.ServiceAppleMusic, fetcher.Service())

	payload, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 90, api.limit)
	assert.Len(t, payload.(AppleMusicPayload).History, 1)
}

type fakeLastFm struct {
	period   string
	artists  []lastfm.TopArtist
	tags     map[string][]lastfm.Tag
	tagErrs  map[string]error
	tagCall  []string
	tagDelay time.Duration
}

func (f *fakeLastFm) UserTopTracks(ctx context.Context, user, period string, limit int) ([]lastfm.TopTrack, error) {
	f.period = period
	return []lastfm.TopTrack{{Name: "T", Artist: "A", PlayCount: 1}}, nil
}

func (f *fakeLastFm) UserTopArtists(ctx context.Context, user, period string, limit int) ([]lastfm.TopArtist, error) {
	if f.artists != nil {
		return f.artists, nil
	}
	return []lastfm.TopArtist{{Name: "A"}, {Name: "B"}, {Name: ""}}, nil
}

func (f *fakeLastFm) ArtistTopTags(ctx context.Context, artistName string, limit int) ([]lastfm.Tag, error) {
	f.tagCall = append(f.tagCall, artistName)
	if f.tagDelay > 0 {
		select {
		case <-time.After(f.tagDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.tagErrs[artistName]; err != nil {
		return nil, err
	}
	return f.tags[artistName], nil
}

func TestLastFmFetcher_Fetch(t *testing.T) {
	api := &fakeLastFm{
		tags:    map[string][]lastfm.Tag{"A": {{Name: "rock"}}},
		tagErrs: map[string]error{"B": errors.New("artist not found")},
	}

	fetcher := NewLastFmFetcher(api, "alice_fm", LastFmOptions{Period: "3month"})
	assert.Equal(t, source.ServiceLastFm, fetcher.Service())

	payload, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)

	p := payload.(LastFmPayload)
	assert.Equal(t, "3month", api.period)
	assert.Equal(t, []string{"A", "B"}, api.tagCall)
	assert.Len(t, p.Artists, 3)
	assert.Equal(t, []lastfm.Tag{{Name: "rock"}}, p.Tags["A"])
	_, hasB := p.Tags["B"]
	assert.False(t, hasB)
}

func TestLastFmFetcher_TagsOnlyTopArtists(t *testing.T) {
	api := &fakeLastFm{
		artists: []lastfm.TopArtist{{Name: "A"}, {Name: ""}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
	}

	_, err := NewLastFmFetcher(api, "alice_fm", LastFmOptions{TagArtists: 2}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, api.tagCall)
}

func TestLastFmFetcher_DeadlineKeepsCharts(t *testing.T) {
	artists := make([]lastfm.TopArtist, 20)
	tags := make(map[string][]lastfm.Tag, len(artists))
	for i := range artists {
		artists[i].Name = fmt.Sprintf("artist-%d", i)
		tags[artists[i].Name] = []lastfm.Tag{{Name: "rock"}}
	}
	api := &fakeLastFm{artists: artists, tags: tags, tagDelay: 20 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	payload, err := NewLastFmFetcher(api, "alice_fm", LastFmOptions{}).Fetch(ctx)
	require.NoError(t, err)

	// Tag lookups stop before the deadline so the charts get back in time.
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.NoError(t, ctx.Err())

	p := payload.(LastFmPayload)
	assert.Len(t, p.Tracks, 1)
	assert.Len(t, p.Artists, 20)
	assert.NotEmpty(t, p.Tags)
	assert.Less(t, len(p.Tags), 20)
}

func TestLastFmFetcher_RequiresUsername(t *testing.T) {
	_, err := NewLastFmFetcher(&fakeLastFm{}, "", LastFmOptions{}).Fetch(context.Background())
	assert.Error(t, err)
}
