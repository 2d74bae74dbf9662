// Package audio provides acoustic descriptor types.
package audio

// Dimension names one acoustic descriptor.
type Dimension string

const (
	Danceability     Dimension = "danceability"
	Energy           Dimension = "energy"
	Valence          Dimension = "valence"
	Acousticness     Dimension = "acousticness"
	Instrumentalness Dimension = "instrumentalness"
	Speechiness      Dimension = "speechiness"
	Liveness         Dimension = "liveness"
	Tempo            Dimension = "tempo" // BPM, not 0-100
)

// Dimensions lists every descriptor in a fixed order.
var Dimensions = []Dimension{
	Danceability,
	Energy,
	Valence,
	Acousticness,
	Instrumentalness,
	Speechiness,
	Liveness,
	Tempo,
}

const (
	// NeutralScale is the default for a 0-100 dimension nobody supplied.
	NeutralScale = 50.0
	// NeutralTempo is the default tempo in BPM.
	NeutralTempo = 120.0
)

// Neutral returns the neutral value for d.
func Neutral(d Dimension) float64 {
	if d == Tempo {
		return NeutralTempo
	}
	return NeutralScale
}

// Descriptors is a sparse per-track vector. A missing key means the source
// did not supply that dimension.
type Descriptors map[Dimension]float64

// Clone returns a copy of d.
func (d Descriptors) Clone() Descriptors {
	if d == nil {
		return nil
	}
	out := make(Descriptors, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Features is the dense averaged vector stored on a profile.
type Features struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Speechiness      float64 `json:"speechiness"`
	Liveness         float64 `json:"liveness"`
	Tempo            float64 `json:"tempo"`
}

// NeutralFeatures returns a vector with every dimension at its neutral value.
func NeutralFeatures() Features {
	var f Features
	for _, d := range Dimensions {
		f.Set(d, Neutral(d))
	}
	return f
}

// Get returns the value of dimension d.
func (f Features) Get(d Dimension) float64 {
	switch d {
	case Danceability:
		return f.Danceability
	case Energy:
		return f.Energy
	case Valence:
		return f.Valence
	case Acousticness:
		return f.Acousticness
	case Instrumentalness:
		return f.Instrumentalness
	case Speechiness:
		return f.Speechiness
	case Liveness:
		return f.Liveness
	case Tempo:
		return f.Tempo
	}
	return 0
}

// Set assigns v to dimension d.
func (f *Features) Set(d Dimension, v float64) {
	switch d {
	case Danceability:
		f.Danceability = v
	case Energy:
		f.Energy = v
	case Valence:
		f.Valence = v
	case Acousticness:
		f.Acousticness = v
	case Instrumentalness:
		f.Instrumentalness = v
	case Speechiness:
		f.Speechiness = v
	case Liveness:
		f.Liveness = v
	case Tempo:
		f.Tempo = v
	}
}
