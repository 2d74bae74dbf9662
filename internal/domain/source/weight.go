package source

// Weight holds the tunable per-service constants of a generation.
type Weight struct {
	// Base is the contribution of a rank-0 entity; each rank below costs one point.
	Base float64
	// Genre is added to a genre for every artist the service vouches for.
	Genre float64
}

// WeightTable maps each service to its weights.
type WeightTable map[Service]Weight

// DefaultWeights returns the stock table. Spotify exposes explicit affinity
// ranking and so weighs most; Last.fm charts are broadest and weigh least.
func DefaultWeights() WeightTable {
	return WeightTable{
		ServiceSpotify:    {Base: 50, Genre: 1.0},
		ServiceAppleMusic: {Base: 40, Genre: 0.8},
		ServiceLastFm:     {Base: 30, Genre: 0.6},
	}
}

// Base returns the base weight of s, or 0 for a service missing from the table.
func (t WeightTable) Base(s Service) float64 {
	return t[s].Base
}

// Genre returns the genre weight of s, or 0 for a service missing from the table.
func (t WeightTable) Genre(s Service) float64 {
	return t[s].Genre
}

// Contribution returns the popularity a service adds for an entity at rank.
func (t WeightTable) Contribution(s Service, rank int) float64 {
	c := t.Base(s) - float64(rank)
	if c < 0 {
		return 0
	}
	return c
}
