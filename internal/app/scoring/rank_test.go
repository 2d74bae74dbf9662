package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/domain/track"
)

func TestRankTracks(t *testing.T) {
	tracks := []track.Merged{
		{ID: "a", PopularityScore: 10},
		{ID: "b", PopularityScore: 30},
		{ID: "c", PopularityScore: 10},
		{ID: "d", PopularityScore: 20},
	}

	ranked := RankTracks(tracks, DefaultTrackLimit)

	ids := make([]string, 0, len(ranked))
	for _, tr := range ranked {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
	assert.Equal(t, "a", tracks[0].ID, "input order untouched")
}

func TestRankTracks_Bounded(t *testing.T) {
	var tracks []track.Merged
	for i := 0; i < 45; i++ {
		tracks = append(tracks, track.Merged{ID: fmt.Sprint(i), PopularityScore: float64(i)})
	}

	ranked := RankTracks(tracks, DefaultTrackLimit)
	require.Len(t, ranked, DefaultTrackLimit)
	assert.Equal(t, "44", ranked[0].ID)
}

func TestRankArtists(t *testing.T) {
	var artists []artist.Merged
	for i := 0; i < 25; i++ {
		artists = append(artists, artist.Merged{Name: fmt.Sprint(i), PopularityScore: float64(i % 5)})
	}

	ranked := RankArtists(artists, DefaultArtistLimit)
	require.Len(t, ranked, DefaultArtistLimit)
	assert.Equal(t, "4", ranked[0].Name)
	assert.Equal(t, "9", ranked[1].Name)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].PopularityScore, ranked[i].PopularityScore)
	}
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, RankTracks(nil, DefaultTrackLimit))
	assert.Empty(t, RankArtists(nil, DefaultArtistLimit))
}

func TestCrossServiceCount(t *testing.T) {
	tracks := []track.Merged{
		{Sources: map[source.Service]string{source.ServiceSpotify: "1", source.ServiceAppleMusic: "2"}},
		{Sources: map[source.Service]string{source.ServiceSpotify: "3"}},
		{Sources: map[source.Service]string{source.ServiceLastFm: "4", source.ServiceAppleMusic: "5", source.ServiceSpotify: "6"}},
	}
	assert.Equal(t, 2, CrossServiceCount(tracks))
}
