package scoring

import (
	"sort"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/track"
)

const (
	// DefaultTrackLimit is the number of tracks kept on a profile.
	DefaultTrackLimit = 30
	// DefaultArtistLimit is the number of artists kept on a profile.
	DefaultArtistLimit = 20
)

// RankTracks returns at most limit tracks by popularity, highest first.
// Equal scores keep insertion order. The input is not modified.
func RankTracks(tracks []track.Merged, limit int) []track.Merged {
	ranked := make([]track.Merged, len(tracks))
	copy(ranked, tracks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PopularityScore > ranked[j].PopularityScore
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// RankArtists returns at most limit artists by popularity, highest first.
// Equal scores keep insertion order. The input is not modified.
func RankArtists(artists []artist.Merged, limit int) []artist.Merged {
	ranked := make([]artist.Merged, len(artists))
	copy(ranked, artists)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PopularityScore > ranked[j].PopularityScore
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// CrossServiceCount returns how many tracks more than one service reported.
func CrossServiceCount(tracks []track.Merged) int {
	n := 0
	for i := range tracks {
		if tracks[i].IsCrossService() {
			n++
		}
	}
	return n
}
