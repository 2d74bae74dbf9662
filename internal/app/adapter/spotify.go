package adapter

import (
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/audio"
	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/domain/track"
)

func adaptSpotify(p SpotifyPayload) Batch {
	b := Batch{Service: source.ServiceSpotify}

	for _, t := range p.Tracks {
		if t.ID == "" {
			continue
		}

		var artistName string
		if len(t.Artists) > 0 {
			artistName = t.Artists[0].Name
		}

		var imageURL string
		if len(t.Album.Images) > 0 {
			imageURL = t.Album.Images[0].URL
		}

		c := track.Common{
			Service:    source.ServiceSpotify,
			SourceID:   string(t.ID),
			Title:      t.Name,
			ArtistName: artistName,
			AlbumName:  t.Album.Name,
			DurationMs: int(t.Duration),
			ImageURL:   imageURL,
			ISRC:       track.NormalizeISRC(t.ExternalIDs["isrc"]),
			SourceRank: len(b.Tracks),
		}
		if f, ok := p.Features[string(t.ID)]; ok {
			c.Descriptors = spotifyDescriptors(f)
		}
		b.Tracks = append(b.Tracks, c)
	}

	for _, a := range p.Artists {
		if a.Name == "" {
			continue
		}

		var imageURL string
		if len(a.Images) > 0 {
			imageURL = a.Images[0].URL
		}

		b.Artists = append(b.Artists, artist.Common{
			Service:    source.ServiceSpotify,
			SourceID:   string(a.ID),
			Name:       a.Name,
			ImageURL:   imageURL,
			Genres:     artist.NormalizeGenres(a.Genres),
			SourceRank: len(b.Artists),
		})
	}

	return b
}

// spotifyDescriptors rescales Spotify's 0.0-1.0 features to 0-100.
// A tempo of 0 means Spotify could not detect one and is left out.
func spotifyDescriptors(f spotify.AudioFeatures) audio.Descriptors {
	d := audio.Descriptors{
		audio.Danceability:     scale(f.Danceability),
		audio.Energy:           scale(f.Energy),
		audio.Valence:          scale(f.Valence),
		audio.Acousticness:     scale(f.Acousticness),
		audio.Instrumentalness: scale(f.Instrumentalness),
		audio.Speechiness:      scale(f.Speechiness),
		audio.Liveness:         scale(f.Liveness),
	}
	if f.Tempo > 0 {
		d[audio.Tempo] = float64(f.Tempo)
	}
	return d
}

func scale(v float32) float64 {
	s := float64(v) * 100
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
