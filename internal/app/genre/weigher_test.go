package genre

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/source"
)

var testWeights = source.WeightTable{
	source.ServiceSpotify:    {Base: 50, Genre: 1.0},
	source.ServiceAppleMusic: {Base: 40, Genre: 0.8},
	source.ServiceLastFm:     {Base: 30, Genre: 0.6},
}

func TestWeigher_Table(t *testing.T) {
	artists := []artist.Merged{
		{Name: "Daft Punk", Genres: []string{"electronic", "french house"}, Sources: []source.Service{source.ServiceLastFm, source.ServiceSpotify}},
		{Name: "Justice", Genres: []string{"french house", "electro"}, Sources: []source.Service{source.ServiceLastFm}},
		{Name: "Air", Genres: []string{"downtempo"}, Sources: []source.Service{source.ServiceAppleMusic}},
	}

	table := NewWeigher(testWeights).Table(artists)

	require.Len(t, table, 4)
	assert.Equal(t, "french house", table[0].Genre)
	assert.InDelta(t, 1.6, table[0].Weight, 1e-9)
	assert.Equal(t, "electronic", table[1].Genre)
	assert.InDelta(t, 1.0, table[1].Weight, 1e-9)
	assert.Equal(t, "downtempo", table[2].Genre)
	assert.Equal(t, "electro", table[3].Genre)
}

func TestWeigher_TiesKeepFirstSeenOrder(t *testing.T) {
	artists := []artist.Merged{
		{Genres: []string{"b", "a"}, Sources: []source.Service{source.ServiceSpotify}},
		{Genres: []string{"c"}, Sources: []source.Service{source.ServiceSpotify}},
	}

	assert.Equal(t, []string{"b", "a", "c"}, NewWeigher(testWeights).Top(artists, DefaultLimit))
}

func TestWeigher_TopIsBounded(t *testing.T) {
	var genres []string
	for i := 0; i < 40; i++ {
		genres = append(genres, fmt.Sprintf("genre-%02d", i))
	}
	artists := []artist.Merged{{Genres: genres, Sources: []source.Service{source.ServiceSpotify}}}

	top := NewWeigher(testWeights).Top(artists, DefaultLimit)
	assert.Len(t, top, DefaultLimit)
	assert.Equal(t, "genre-00", top[0])
}

func TestWeigher_Empty(t *testing.T) {
	top := NewWeigher(testWeights).Top(nil, DefaultLimit)
	assert.NotNil(t, top)
	assert.Empty(t, top)
}
