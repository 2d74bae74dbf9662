// Package adapter converts service-native listening data into common entities.
package adapter

import (
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/domain/track"
	"github.com/osa030/tastemix/internal/infra/applemusic"
	"github.com/osa030/tastemix/internal/infra/lastfm"
)

// Payload is the raw data fetched from one service.
// The set of implementations is closed; see Adapt.
type Payload interface {
	Service() source.Service
	payload()
}

// SpotifyPayload holds a user's Spotify top items.
type SpotifyPayload struct {
	Tracks  []spotify.FullTrack
	Artists []spotify.FullArtist
	// Features is keyed by track ID. Nil when the lookup was unavailable.
	Features map[string]spotify.AudioFeatures
}

// AppleMusicPayload holds a user's Apple Music listening history, newest first.
type AppleMusicPayload struct {
	History []applemusic.Song
}

// LastFmPayload holds a user's Last.fm charts.
type LastFmPayload struct {
	Tracks  []lastfm.TopTrack
	Artists []lastfm.TopArtist
	// Tags is keyed by artist name as returned in Artists.
	Tags map[string][]lastfm.Tag
}

func (SpotifyPayload) Service() source.Service    { return source.ServiceSpotify }
func (AppleMusicPayload) Service() source.Service { return source.ServiceAppleMusic }
func (LastFmPayload) Service() source.Service     { return source.ServiceLastFm }

func (SpotifyPayload) payload()    {}
func (AppleMusicPayload) payload() {}
func (LastFmPayload) payload()     {}

// Batch is the common-entity view of one service's payload.
type Batch struct {
	Service source.Service
	Tracks  []track.Common
	Artists []artist.Common
}

// IsEmpty reports whether the batch carries no entities.
func (b *Batch) IsEmpty() bool {
	return len(b.Tracks) == 0 && len(b.Artists) == 0
}

// Adapt converts a payload into common entities.
// It never fails: missing optional fields resolve to zero values.
func Adapt(p Payload) Batch {
	switch p := p.(type) {
	case SpotifyPayload:
		return adaptSpotify(p)
	case *SpotifyPayload:
		return adaptSpotify(*p)
	case AppleMusicPayload:
		return adaptAppleMusic(p)
	case *AppleMusicPayload:
		return adaptAppleMusic(*p)
	case LastFmPayload:
		return adaptLastFm(p)
	case *LastFmPayload:
		return adaptLastFm(*p)
	}
	return Batch{}
}
