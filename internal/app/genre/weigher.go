// Package genre ranks genres across merged artists.
package genre

import (
	"sort"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/source"
)

// DefaultLimit is the number of genres kept on a profile.
const DefaultLimit = 15

// Weight is one genre's accumulated weight.
type Weight struct {
	Genre  string
	Weight float64
}

// Weigher accumulates genre weights from merged artists.
type Weigher struct {
	weights source.WeightTable
}

// NewWeigher creates a Weigher using the given weight table.
func NewWeigher(weights source.WeightTable) *Weigher {
	return &Weigher{weights: weights}
}

// Table returns every genre with its weight, heaviest first. Each artist adds,
// to each of its genres, the largest genre weight among its sources. Ties
// keep first-seen order.
func (w *Weigher) Table(artists []artist.Merged) []Weight {
	index := make(map[string]int)
	var table []Weight

	for _, a := range artists {
		weight := w.artistWeight(a)
		for _, g := range a.Genres {
			if idx, ok := index[g]; ok {
				table[idx].Weight += weight
				continue
			}
			index[g] = len(table)
			table = append(table, Weight{Genre: g, Weight: weight})
		}
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Weight > table[j].Weight
	})
	return table
}

// Top returns at most limit genre names, heaviest first.
func (w *Weigher) Top(artists []artist.Merged, limit int) []string {
	table := w.Table(artists)
	if limit >= 0 && len(table) > limit {
		table = table[:limit]
	}

	genres := make([]string, 0, len(table))
	for _, entry := range table {
		genres = append(genres, entry.Genre)
	}
	return genres
}

func (w *Weigher) artistWeight(a artist.Merged) float64 {
	var best float64
	for _, s := range a.Sources {
		if g := w.weights.Genre(s); g > best {
			best = g
		}
	}
	return best
}
