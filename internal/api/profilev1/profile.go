// Package profilev1 defines the messages of the profile RPC API.
package profilev1

import (
	"github.com/osa030/tastemix/internal/domain/profile"
)

// GenerateProfileRequest asks for a fresh profile of one user.
type GenerateProfileRequest struct {
	UserID string `json:"user_id"`
}

// GenerateProfileResponse carries the generated profile and how it was built.
type GenerateProfileResponse struct {
	Profile *profile.Profile `json:"profile"`
	Stats   *Stats           `json:"stats"`
}

// GetProfileRequest asks for the last stored profile of one user.
type GetProfileRequest struct {
	UserID string `json:"user_id"`
}

// GetProfileResponse carries a stored profile.
type GetProfileResponse struct {
	Profile *profile.Profile `json:"profile"`
}

// Stats describes one generation.
type Stats struct {
	Services           []string          `json:"services"`
	Excluded           map[string]string `json:"excluded,omitempty"`
	MergedTracks       int               `json:"merged_tracks"`
	MergedArtists      int               `json:"merged_artists"`
	CrossServiceTracks int               `json:"cross_service_tracks"`
	DescriptorCoverage int               `json:"descriptor_coverage"`
	Policy             string            `json:"policy"`
}
