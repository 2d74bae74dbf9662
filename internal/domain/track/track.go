// Package track provides the track domain entities.
package track

import (
	"strings"

	"github.com/osa030/tastemix/internal/domain/audio"
	"github.com/osa030/tastemix/internal/domain/source"
)

// Common is a track as reported by one service, produced by a source adapter.
// It is never modified after creation.
type Common struct {
	Service     source.Service    // Reporting service
	SourceID    string            // Service-native track ID
	Title       string            // Track title
	ArtistName  string            // Main artist name
	AlbumName   string            // Album name (optional)
	DurationMs  int               // Duration in milliseconds, 0 if unknown
	ImageURL    string            // Artwork URL (optional)
	ISRC        string            // Standardized recording identifier (optional)
	SourceRank  int               // 0-based position in the service's top list
	Descriptors audio.Descriptors // Acoustic descriptors, nil if the service has none
}

// HasISRC reports whether the track carries a standardized recording identifier.
func (t *Common) HasISRC() bool {
	return t.ISRC != ""
}

// Merged is one recording resolved across services.
type Merged struct {
	ID                string                    `json:"id"` // Generation-scoped, not a stable key
	Title             string                    `json:"title"`
	ArtistDisplayName string                    `json:"artist_display_name"`
	ImageURL          string                    `json:"image_url,omitempty"`
	ISRC              string                    `json:"isrc,omitempty"`
	Sources           map[source.Service]string `json:"sources"` // service -> source ID
	PopularityScore   float64                   `json:"popularity_score"`
	Descriptors       audio.Descriptors         `json:"-"`
}

// HasSource reports whether svc already contributed to the track.
func (m *Merged) HasSource(svc source.Service) bool {
	_, ok := m.Sources[svc]
	return ok
}

// IsCrossService reports whether more than one service contributed.
func (m *Merged) IsCrossService() bool {
	return len(m.Sources) > 1
}

// NormalizeISRC uppercases an ISRC and strips separators and spaces.
// Returns "" for values that cannot be an ISRC (12 alphanumerics).
func NormalizeISRC(isrc string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(isrc) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '\t':
		default:
			return ""
		}
	}
	if b.Len() != 12 {
		return ""
	}
	return b.String()
}
