// Package profile provides the unified taste profile entity.
package profile

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/audio"
	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/domain/track"
)

// ErrNotFound is returned by stores when no profile exists for a user.
var ErrNotFound = errors.New("profile not found")

// Profile is the unified taste profile of one user.
// A new Profile is built on every generation and replaces the stored one.
// Callers must treat it as read-only.
type Profile struct {
	UserID         string           `json:"user_id"`
	SourceServices []source.Service `json:"source_services"`
	TopTracks      []track.Merged   `json:"top_tracks"`  // At most 30
	TopArtists     []artist.Merged  `json:"top_artists"` // At most 20
	TopGenres      []string         `json:"top_genres"`  // At most 15
	AudioFeatures  audio.Features   `json:"audio_features"`
	PartyReadiness int              `json:"party_readiness"` // 0-100
	GeneratedAt    time.Time        `json:"generated_at"`
}

// HasService reports whether svc contributed data to the profile.
func (p *Profile) HasService(svc source.Service) bool {
	for _, s := range p.SourceServices {
		if s == svc {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the profile carries no tracks, artists or genres.
func (p *Profile) IsEmpty() bool {
	return len(p.TopTracks) == 0 && len(p.TopArtists) == 0 && len(p.TopGenres) == 0
}
