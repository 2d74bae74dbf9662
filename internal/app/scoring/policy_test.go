package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/tastemix/internal/domain/audio"
)

func TestLinearPolicy_DanceableEnergeticTracks(t *testing.T) {
	// Every descriptor 0 except danceability and energy at 80.
	features := audio.Features{Danceability: 80, Energy: 80}

	assert.Equal(t, 66, DefaultPolicy().Readiness(features))
}

func TestLinearPolicy_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		features audio.Features
		expected int
	}{
		{
			name:     "all zero",
			features: audio.Features{},
			expected: 10,
		},
		{
			name:     "all max and no acoustics",
			features: audio.Features{Danceability: 100, Energy: 100, Valence: 100},
			expected: 100,
		},
		{
			name:     "fully acoustic",
			features: audio.Features{Acousticness: 100},
			expected: 0,
		},
		{
			name:     "neutral",
			features: audio.NeutralFeatures(),
			expected: 50,
		},
		{
			name:     "out of range input is clamped high",
			features: audio.Features{Danceability: 300, Energy: 300},
			expected: 100,
		},
		{
			name:     "out of range input is clamped low",
			features: audio.Features{Danceability: -300, Acousticness: 100},
			expected: 0,
		},
	}

	policy := DefaultPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := policy.Readiness(tt.features)
			assert.Equal(t, tt.expected, score)
			assert.GreaterOrEqual(t, score, MinReadiness)
			assert.LessOrEqual(t, score, MaxReadiness)
		})
	}
}

func TestLinearPolicy_Swappable(t *testing.T) {
	var policy Policy = LinearPolicy{Energy: 1}

	assert.Equal(t, "linear", policy.Name())
	assert.Equal(t, 42, policy.Readiness(audio.Features{Energy: 42, Danceability: 99}))
}
