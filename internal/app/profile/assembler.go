// Package profile generates unified taste profiles from connected services.
package profile

import (
	"time"

	"github.com/osa030/tastemix/internal/app/adapter"
	"github.com/osa030/tastemix/internal/app/descriptor"
	"github.com/osa030/tastemix/internal/app/genre"
	"github.com/osa030/tastemix/internal/app/resolve"
	"github.com/osa030/tastemix/internal/app/scoring"
	"github.com/osa030/tastemix/internal/domain/artist"
	taste "github.com/osa030/tastemix/internal/domain/profile"
	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/domain/track"
)

// Limits bound the ranked lists of a profile.
type Limits struct {
	Tracks  int
	Artists int
	Genres  int
}

// DefaultLimits returns the stock list sizes.
func DefaultLimits() Limits {
	return Limits{
		Tracks:  scoring.DefaultTrackLimit,
		Artists: scoring.DefaultArtistLimit,
		Genres:  genre.DefaultLimit,
	}
}

// Stats describes one generation. It is reported to callers, not stored.
type Stats struct {
	Services           []source.Service          // Services whose data was used, in priority order
	Excluded           map[source.Service]string // Services left out, with the reason
	MergedTracks       int
	MergedArtists      int
	CrossServiceTracks int
	DescriptorCoverage int // Merged tracks carrying a descriptor vector
	Policy             string
}

// Assembler builds a profile from already fetched batches.
// It performs no I/O.
type Assembler struct {
	resolver *resolve.Resolver
	weigher  *genre.Weigher
	policy   scoring.Policy
	limits   Limits
}

// NewAssembler creates an Assembler.
func NewAssembler(weights source.WeightTable, policy scoring.Policy, limits Limits, opts ...resolve.Option) *Assembler {
	if policy == nil {
		policy = scoring.DefaultPolicy()
	}
	return &Assembler{
		resolver: resolve.New(weights, opts...),
		weigher:  genre.NewWeigher(weights),
		policy:   policy,
		limits:   limits,
	}
}

// Assemble resolves, weighs, averages and scores the batches of one user.
// Every batch names a source service of the profile, even an empty one.
func (a *Assembler) Assemble(userID string, primary source.Service, batches []adapter.Batch, now time.Time) (taste.Profile, Stats) {
	services := make([]source.Service, 0, len(batches))
	for _, b := range batches {
		services = append(services, b.Service)
	}
	services = source.PriorityOrder(primary, services)

	p := taste.Profile{
		UserID:         userID,
		SourceServices: services,
		TopTracks:      []track.Merged{},
		TopArtists:     []artist.Merged{},
		TopGenres:      []string{},
		AudioFeatures:  descriptor.Average(nil),
		PartyReadiness: 0,
		GeneratedAt:    now.UTC(),
	}
	stats := Stats{
		Services: services,
		Policy:   a.policy.Name(),
	}

	resolved := a.resolver.Resolve(primary, batches)
	if len(resolved.Tracks) == 0 && len(resolved.Artists) == 0 {
		return p, stats
	}

	p.TopTracks = scoring.RankTracks(resolved.Tracks, a.limits.Tracks)
	p.TopArtists = scoring.RankArtists(resolved.Artists, a.limits.Artists)
	p.TopGenres = a.weigher.Top(resolved.Artists, a.limits.Genres)
	p.AudioFeatures = descriptor.Average(resolved.Tracks)
	p.PartyReadiness = a.policy.Readiness(p.AudioFeatures)

	stats.MergedTracks = len(resolved.Tracks)
	stats.MergedArtists = len(resolved.Artists)
	stats.CrossServiceTracks = scoring.CrossServiceCount(resolved.Tracks)
	stats.DescriptorCoverage = descriptor.Coverage(resolved.Tracks)

	return p, stats
}
