package adapter

import (
	"sort"
	"strings"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/domain/track"
	"github.com/osa030/tastemix/internal/infra/applemusic"
)

// appleArtworkSize is the square size requested for artwork templates.
const appleArtworkSize = 300

// appleRootGenre is attached to every catalog song and carries no signal.
const appleRootGenre = "music"

type applePlays struct {
	track track.Common
	plays int
	first int
}

type appleArtistPlays struct {
	name   string
	genres []string
	plays  int
	first  int
}

// adaptAppleMusic ranks tracks and artists by how often they occur in the
// listening history. Ties keep the more recent first play ahead.
func adaptAppleMusic(p AppleMusicPayload) Batch {
	b := Batch{Service: source.ServiceAppleMusic}

	tracks := make(map[string]*applePlays)
	artists := make(map[string]*appleArtistPlays)

	for i, song := range p.History {
		attrs := song.Attributes
		catalogID, catalogAttrs := appleCatalog(song)

		title := firstNonEmpty(attrs.Name, catalogAttrs.Name)
		if title == "" {
			continue
		}
		artistName := firstNonEmpty(attrs.ArtistName, catalogAttrs.ArtistName)
		isrc := track.NormalizeISRC(firstNonEmpty(attrs.ISRC, catalogAttrs.ISRC))

		sourceID := song.ID
		if catalogID != "" {
			sourceID = catalogID
		}
		key := "id:" + sourceID
		if isrc != "" {
			key = "isrc:" + isrc
		}

		if entry, ok := tracks[key]; ok {
			entry.plays++
		} else {
			artwork := attrs.Artwork
			if artwork == nil {
				artwork = catalogAttrs.Artwork
			}
			duration := attrs.DurationInMillis
			if duration == 0 {
				duration = catalogAttrs.DurationInMillis
			}

			tracks[key] = &applePlays{
				track: track.Common{
					Service:    source.ServiceAppleMusic,
					SourceID:   sourceID,
					Title:      title,
					ArtistName: artistName,
					AlbumName:  firstNonEmpty(attrs.AlbumName, catalogAttrs.AlbumName),
					DurationMs: duration,
					ImageURL:   applemusic.ArtworkURL(artwork, appleArtworkSize),
					ISRC:       isrc,
				},
				plays: 1,
				first: i,
			}
		}

		artistKey := artist.NormalizeName(artistName)
		if artistKey == "" {
			continue
		}
		genres := attrs.GenreNames
		if len(genres) == 0 {
			genres = catalogAttrs.GenreNames
		}
		if entry, ok := artists[artistKey]; ok {
			entry.plays++
			entry.genres = append(entry.genres, genres...)
		} else {
			artists[artistKey] = &appleArtistPlays{
				name:   artistName,
				genres: append([]string(nil), genres...),
				plays:  1,
				first:  i,
			}
		}
	}

	rankedTracks := make([]*applePlays, 0, len(tracks))
	for _, t := range tracks {
		rankedTracks = append(rankedTracks, t)
	}
	sort.Slice(rankedTracks, func(i, j int) bool {
		if rankedTracks[i].plays != rankedTracks[j].plays {
			return rankedTracks[i].plays > rankedTracks[j].plays
		}
		return rankedTracks[i].first < rankedTracks[j].first
	})
	for rank, t := range rankedTracks {
		c := t.track
		c.SourceRank = rank
		b.Tracks = append(b.Tracks, c)
	}

	rankedArtists := make([]*appleArtistPlays, 0, len(artists))
	for _, a := range artists {
		rankedArtists = append(rankedArtists, a)
	}
	sort.Slice(rankedArtists, func(i, j int) bool {
		if rankedArtists[i].plays != rankedArtists[j].plays {
			return rankedArtists[i].plays > rankedArtists[j].plays
		}
		return rankedArtists[i].first < rankedArtists[j].first
	})
	for rank, a := range rankedArtists {
		b.Artists = append(b.Artists, artist.Common{
			Service:    source.ServiceAppleMusic,
			SourceID:   artist.NormalizeName(a.name),
			Name:       a.name,
			Genres:     appleGenres(a.genres),
			SourceRank: rank,
		})
	}

	return b
}

// appleCatalog returns the catalog counterpart of a library song, if included.
func appleCatalog(song applemusic.Song) (string, applemusic.SongAttributes) {
	if song.Relationships.Catalog == nil || len(song.Relationships.Catalog.Data) == 0 {
		return "", applemusic.SongAttributes{}
	}
	c := song.Relationships.Catalog.Data[0]
	return c.ID, c.Attributes
}

func appleGenres(genres []string) []string {
	out := artist.NormalizeGenres(genres)
	filtered := out[:0]
	for _, g := range out {
		if g != appleRootGenre {
			filtered = append(filtered, g)
		}
	}
	return filtered
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
