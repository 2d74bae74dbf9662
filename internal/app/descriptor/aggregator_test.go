package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/tastemix/internal/domain/audio"
	"github.com/osa030/tastemix/internal/domain/track"
)

func TestAverage(t *testing.T) {
	tracks := []track.Merged{
		{Descriptors: audio.Descriptors{audio.Danceability: 80, audio.Energy: 60, audio.Tempo: 128}},
		{Descriptors: audio.Descriptors{audio.Danceability: 40}},
		{},
	}

	features := Average(tracks)

	assert.InDelta(t, 60, features.Danceability, 1e-9)
	assert.InDelta(t, 60, features.Energy, 1e-9, "only contributing tracks count")
	assert.InDelta(t, 128, features.Tempo, 1e-9)
	assert.Equal(t, audio.NeutralScale, features.Valence)
	assert.Equal(t, audio.NeutralScale, features.Liveness)
}

func TestAverage_NoDescriptors(t *testing.T) {
	tests := []struct {
		name   string
		tracks []track.Merged
	}{
		{name: "no tracks", tracks: nil},
		{name: "tracks without vectors", tracks: []track.Merged{{Title: "a"}, {Title: "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := Average(tt.tracks)
			assert.Equal(t, audio.NeutralFeatures(), features)
			assert.Equal(t, audio.NeutralTempo, features.Tempo)
		})
	}
}

func TestCoverage(t *testing.T) {
	tracks := []track.Merged{
		{Descriptors: audio.Descriptors{audio.Energy: 1}},
		{Descriptors: audio.Descriptors{}},
		{},
	}
	assert.Equal(t, 1, Coverage(tracks))
}
