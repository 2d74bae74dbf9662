// Package scoring computes party readiness and ranks merged entities.
package scoring

import (
	"math"

	"github.com/osa030/tastemix/internal/domain/audio"
)

const (
	// MinReadiness and MaxReadiness bound every policy's output.
	MinReadiness = 0
	MaxReadiness = 100
)

// Policy turns averaged audio features into a party-readiness score.
type Policy interface {
	Name() string
	Readiness(f audio.Features) int
}

// LinearPolicy is a weighted sum of danceability, energy, valence and
// inverted acousticness.
type LinearPolicy struct {
	Danceability float64
	Energy       float64
	Valence      float64
	// Acousticness weighs (100 - acousticness).
	Acousticness float64
}

// DefaultPolicy returns the stock linear policy.
func DefaultPolicy() LinearPolicy {
	return LinearPolicy{
		Danceability: 0.35,
		Energy:       0.35,
		Valence:      0.20,
		Acousticness: 0.10,
	}
}

func (p LinearPolicy) Name() string {
	return "linear"
}

// Readiness returns the rounded weighted sum clamped to [0, 100].
func (p LinearPolicy) Readiness(f audio.Features) int {
	score := f.Danceability*p.Danceability +
		f.Energy*p.Energy +
		f.Valence*p.Valence +
		(100-f.Acousticness)*p.Acousticness
	return Clamp(int(math.Round(score)))
}

// Clamp bounds a score to [MinReadiness, MaxReadiness].
func Clamp(score int) int {
	if score < MinReadiness {
		return MinReadiness
	}
	if score > MaxReadiness {
		return MaxReadiness
	}
	return score
}
