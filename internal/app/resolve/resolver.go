// Package resolve merges common entities from several services into merged
// tracks and artists.
package resolve

import (
	"github.com/google/uuid"

	"github.com/osa030/tastemix/internal/app/adapter"
	"github.com/osa030/tastemix/internal/domain/artist"
	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/domain/track"
)

// Result holds merged entities in insertion order.
type Result struct {
	Tracks  []track.Merged
	Artists []artist.Merged
}

// Resolver merges batches. It holds no per-run state and is safe for
// concurrent use.
type Resolver struct {
	weights source.WeightTable
	newID   func() string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIDGenerator replaces the merged track ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Resolver) {
		r.newID = fn
	}
}

// New creates a Resolver using the given weight table.
func New(weights source.WeightTable, opts ...Option) *Resolver {
	r := &Resolver{
		weights: weights,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run is the state of one Resolve call.
type run struct {
	*Resolver
	tracks  []track.Merged
	byISRC  map[string]int
	artists []artist.Merged
	byName  map[string]int
}

// Resolve merges batches, visiting services in priority order: primary first,
// then the rest by name. Batches of the same service are visited in the
// order given.
func (r *Resolver) Resolve(primary source.Service, batches []adapter.Batch) Result {
	st := &run{
		Resolver: r,
		byISRC:   make(map[string]int),
		byName:   make(map[string]int),
	}

	services := make([]source.Service, 0, len(batches))
	for _, b := range batches {
		services = append(services, b.Service)
	}
	order := source.PriorityOrder(primary, services)

	for _, svc := range order {
		for i := range batches {
			if batches[i].Service != svc {
				continue
			}
			for _, t := range batches[i].Tracks {
				st.addTrack(t)
			}
			for _, a := range batches[i].Artists {
				st.addArtist(a)
			}
		}
	}

	return Result{
		Tracks:  st.tracks,
		Artists: st.artists,
	}
}

func (st *run) addTrack(t track.Common) {
	contribution := st.weights.Contribution(t.Service, t.SourceRank)

	if t.HasISRC() {
		if idx, ok := st.byISRC[t.ISRC]; ok {
			m := &st.tracks[idx]
			if m.HasSource(t.Service) {
				// A service never contributes twice to one recording.
				return
			}
			m.Sources[t.Service] = t.SourceID
			m.PopularityScore += contribution
			if m.ImageURL == "" {
				m.ImageURL = t.ImageURL
			}
			if m.Descriptors == nil && len(t.Descriptors) > 0 {
				m.Descriptors = t.Descriptors.Clone()
			}
			return
		}
		st.byISRC[t.ISRC] = len(st.tracks)
	}

	m := track.Merged{
		ID:                st.newID(),
		Title:             t.Title,
		ArtistDisplayName: t.ArtistName,
		ImageURL:          t.ImageURL,
		ISRC:              t.ISRC,
		Sources:           map[source.Service]string{t.Service: t.SourceID},
		PopularityScore:   contribution,
	}
	if len(t.Descriptors) > 0 {
		m.Descriptors = t.Descriptors.Clone()
	}
	st.tracks = append(st.tracks, m)
}

func (st *run) addArtist(a artist.Common) {
	key := artist.NormalizeName(a.Name)
	if key == "" {
		return
	}
	contribution := st.weights.Contribution(a.Service, a.SourceRank)

	if idx, ok := st.byName[key]; ok {
		m := &st.artists[idx]
		if m.HasSource(a.Service) {
			return
		}
		m.Sources = append(m.Sources, a.Service)
		m.AddGenres(a.Genres)
		m.PopularityScore += contribution
		if m.ImageURL == "" {
			m.ImageURL = a.ImageURL
		}
		return
	}

	st.byName[key] = len(st.artists)
	st.artists = append(st.artists, artist.Merged{
		Name:            a.Name,
		ImageURL:        a.ImageURL,
		Genres:          artist.NormalizeGenres(a.Genres),
		Sources:         []source.Service{a.Service},
		PopularityScore: contribution,
	})
}
