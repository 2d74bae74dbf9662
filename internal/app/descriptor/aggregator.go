// Package descriptor averages acoustic descriptors across merged tracks.
package descriptor

import (
	"github.com/osa030/tastemix/internal/domain/audio"
	"github.com/osa030/tastemix/internal/domain/track"
)

// Average returns the per-dimension arithmetic mean over the tracks that
// supplied that dimension. Dimensions nobody supplied take their neutral value.
func Average(tracks []track.Merged) audio.Features {
	sums := make(map[audio.Dimension]float64, len(audio.Dimensions))
	counts := make(map[audio.Dimension]int, len(audio.Dimensions))

	for _, t := range tracks {
		for d, v := range t.Descriptors {
			sums[d] += v
			counts[d]++
		}
	}

	features := audio.NeutralFeatures()
	for _, d := range audio.Dimensions {
		if n := counts[d]; n > 0 {
			features.Set(d, sums[d]/float64(n))
		}
	}
	return features
}

// Coverage returns how many tracks supplied at least one descriptor.
func Coverage(tracks []track.Merged) int {
	n := 0
	for _, t := range tracks {
		if len(t.Descriptors) > 0 {
			n++
		}
	}
	return n
}
