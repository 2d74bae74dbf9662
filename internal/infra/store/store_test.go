package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/audio"
	"github.com/osa030/tastemix/internal/domain/profile"
	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/domain/track"
)

func sampleProfile(userID string, readiness int) profile.Profile {
	return profile.Profile{
		UserID:         userID,
		SourceServices: []source.Service{source.ServiceSpotify, source.ServiceLastFm},
		TopTracks: []track.Merged{{
			ID:                "0b6f4c1e-6a55-4d0e-9c3e-0a4f7a1c2d3e",
			Title:             "One More Time",
			ArtistDisplayName: "Daft Punk",
			ISRC:              "GBDUW0000059",
			Sources:           map[source.Service]string{source.ServiceSpotify: "sp-1", source.ServiceAppleMusic: "am-1"},
			PopularityScore:   88,
		}},
		TopArtists: []artist.Merged{{
			Name:            "Daft Punk",
			Genres:          []string{"electronic", "french house"},
			Sources:         []source.Service{source.ServiceSpotify},
			PopularityScore: 50,
		}},
		TopGenres:      []string{"electronic", "french house"},
		AudioFeatures:  audio.NeutralFeatures(),
		PartyReadiness: readiness,
		GeneratedAt:    time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := Open("sqlite", filepath.Join(t.TempDir(), "tastemix.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	memory, err := Open("memory", "")
	require.NoError(t, err)

	return map[string]Store{"sqlite": sqlite, "memory": memory}
}

func TestStore_PutGet(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleProfile("alice", 66)

			require.NoError(t, s.Put(ctx, want))

			got, err := s.Get(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestStore_PutReplaces(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, sampleProfile("alice", 10)))

			replacement := sampleProfile("alice", 90)
			replacement.TopGenres = []string{"techno"}
			require.NoError(t, s.Put(ctx, replacement))

			got, err := s.Get(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, 90, got.PartyReadiness)
			assert.Equal(t, []string{"techno"}, got.TopGenres)
		})
	}
}

func TestStore_GetNotFound(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "nobody")
			assert.True(t, errors.Is(err, profile.ErrNotFound))
		})
	}
}

func TestMemory_IsolatesStoredValues(t *testing.T) {
	m := NewMemory()
	p := sampleProfile("alice", 50)
	require.NoError(t, m.Put(context.Background(), p))

	p.TopGenres[0] = "mutated"

	got, err := m.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "electronic", got.TopGenres[0])
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("postgres", "")
	assert.Error(t, err)
}
