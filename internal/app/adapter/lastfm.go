package adapter

import (
	"sort"
	"strings"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/domain/track"
	"github.com/osa030/tastemix/internal/infra/lastfm"
)

// adaptLastFm ranks entries by play count, keeping chart order on ties.
// Last.fm has no ISRC, so its tracks never merge by recording id.
func adaptLastFm(p LastFmPayload) Batch {
	b := Batch{Service: source.ServiceLastFm}

	tracks := make([]lastfm.TopTrack, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		if strings.TrimSpace(t.Name) != "" {
			tracks = append(tracks, t)
		}
	}
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].PlayCount > tracks[j].PlayCount
	})
	for rank, t := range tracks {
		b.Tracks = append(b.Tracks, track.Common{
			Service:    source.ServiceLastFm,
			SourceID:   lastFmID(t.MBID, t.Artist, t.Name),
			Title:      t.Name,
			ArtistName: t.Artist,
			DurationMs: t.DurationSec * 1000,
			ImageURL:   t.ImageURL,
			SourceRank: rank,
		})
	}

	artists := make([]lastfm.TopArtist, 0, len(p.Artists))
	for _, a := range p.Artists {
		if strings.TrimSpace(a.Name) != "" {
			artists = append(artists, a)
		}
	}
	sort.SliceStable(artists, func(i, j int) bool {
		return artists[i].PlayCount > artists[j].PlayCount
	})
	for rank, a := range artists {
		tags := p.Tags[a.Name]
		genres := make([]string, 0, len(tags))
		for _, tag := range tags {
			genres = append(genres, tag.Name)
		}

		b.Artists = append(b.Artists, artist.Common{
			Service:    source.ServiceLastFm,
			SourceID:   lastFmID(a.MBID, a.Name, ""),
			Name:       a.Name,
			ImageURL:   a.ImageURL,
			Genres:     artist.NormalizeGenres(genres),
			SourceRank: rank,
		})
	}

	return b
}

// lastFmID prefers the MusicBrainz id and falls back to the normalized names.
func lastFmID(mbid, artistName, name string) string {
	if mbid != "" {
		return mbid
	}
	id := artist.NormalizeName(artistName)
	if name != "" {
		id += "/" + strings.ToLower(strings.TrimSpace(name))
	}
	return id
}
