// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	profilev1 "github.com/osa030/tastemix/internal/api/profilev1"
	"github.com/osa030/tastemix/internal/api/profilev1/profilev1connect"
	"github.com/osa030/tastemix/internal/app/profile"
	taste "github.com/osa030/tastemix/internal/domain/profile"
)

// ProfileGenerator is the application service behind ProfileService.
type ProfileGenerator interface {
	Generate(ctx context.Context, userID string) (*profile.Result, error)
	Get(ctx context.Context, userID string) (taste.Profile, error)
}

// ProfileService implements the ProfileService RPC.
type ProfileService struct {
	profiles ProfileGenerator
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profiles ProfileGenerator) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Ensure ProfileService implements the interface.
var _ profilev1connect.ProfileServiceHandler = (*ProfileService)(nil)

// GenerateProfile regenerates and stores the profile of a user.
func (s *ProfileService) GenerateProfile(
	ctx context.Context,
	req *connect.Request[profilev1.GenerateProfileRequest],
) (*connect.Response[profilev1.GenerateProfileResponse], error) {
	userID := strings.TrimSpace(req.Msg.UserID)
	if userID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user_id is required"))
	}

	result, err := s.profiles.Generate(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&profilev1.GenerateProfileResponse{
		Profile: &result.Profile,
		Stats:   toStats(result.Stats),
	}), nil
}

// GetProfile returns the last stored profile of a user.
func (s *ProfileService) GetProfile(
	ctx context.Context,
	req *connect.Request[profilev1.GetProfileRequest],
) (*connect.Response[profilev1.GetProfileResponse], error) {
	userID := strings.TrimSpace(req.Msg.UserID)
	if userID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user_id is required"))
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&profilev1.GetProfileResponse{Profile: &p}), nil
}

func toStats(stats profile.Stats) *profilev1.Stats {
	out := &profilev1.Stats{
		Services:           make([]string, 0, len(stats.Services)),
		MergedTracks:       stats.MergedTracks,
		MergedArtists:      stats.MergedArtists,
		CrossServiceTracks: stats.CrossServiceTracks,
		DescriptorCoverage: stats.DescriptorCoverage,
		Policy:             stats.Policy,
	}
	for _, svc := range stats.Services {
		out.Services = append(out.Services, svc.String())
	}
	if len(stats.Excluded) > 0 {
		out.Excluded = make(map[string]string, len(stats.Excluded))
		for svc, reason := range stats.Excluded {
			out.Excluded[svc.String()] = reason
		}
	}
	return out
}

// toConnectError maps application errors to RPC codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, profile.ErrNoServicesConnected):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, profile.ErrNoDataAvailable):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, taste.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	zlog.Error().Err(err).Msg("profile request failed")
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
