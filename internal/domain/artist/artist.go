// Package artist provides the artist domain entities.
package artist

import (
	"strings"

	"github.com/osa030/tastemix/internal/domain/source"
)

// Common is an artist as reported by one service.
type Common struct {
	Service    source.Service
	SourceID   string
	Name       string
	ImageURL   string
	Genres     []string // Set semantics, see NormalizeGenres
	SourceRank int
}

// Merged is an artist resolved across services by normalized name.
type Merged struct {
	Name            string           `json:"name"`
	ImageURL        string           `json:"image_url,omitempty"`
	Genres          []string         `json:"genres"`  // Union of contributors, first-seen order
	Sources         []source.Service `json:"sources"` // Contributing services, first-seen order
	PopularityScore float64          `json:"popularity_score"`
}

// HasSource reports whether svc already contributed to the artist.
func (m *Merged) HasSource(svc source.Service) bool {
	for _, s := range m.Sources {
		if s == svc {
			return true
		}
	}
	return false
}

// AddGenres unions genres into the artist's genre set, keeping first-seen order.
func (m *Merged) AddGenres(genres []string) {
	m.Genres = NormalizeGenres(append(m.Genres, genres...))
}

// NormalizeName returns the merge key for an artist name:
// lowercase, trimmed, inner whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NormalizeGenres lowercases and trims genre tags and removes empties and
// duplicates. The first occurrence decides the position.
func NormalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]bool, len(genres))
	for _, g := range genres {
		n := strings.Join(strings.Fields(strings.ToLower(g)), " ")
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
