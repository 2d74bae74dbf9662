// Package profilev1connect wires ProfileService to Connect handlers and clients.
package profilev1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	profilev1 "github.com/osa030/tastemix/internal/api/profilev1"
)

// ProfileServiceName is the fully-qualified name of the ProfileService service.
const ProfileServiceName = "tastemix.profile.v1.ProfileService"

const (
	// ProfileServiceGenerateProfileProcedure is the path of ProfileService.GenerateProfile.
	ProfileServiceGenerateProfileProcedure = "/tastemix.profile.v1.ProfileService/GenerateProfile"
	// ProfileServiceGetProfileProcedure is the path of ProfileService.GetProfile.
	ProfileServiceGetProfileProcedure = "/tastemix.profile.v1.ProfileService/GetProfile"
)

// ProfileServiceHandler is implemented by the server side of ProfileService.
type ProfileServiceHandler interface {
	GenerateProfile(context.Context, *connect.Request[profilev1.GenerateProfileRequest]) (*connect.Response[profilev1.GenerateProfileResponse], error)
	GetProfile(context.Context, *connect.Request[profilev1.GetProfileRequest]) (*connect.Response[profilev1.GetProfileResponse], error)
}

// NewProfileServiceHandler builds an HTTP handler serving every ProfileService
// procedure, and returns the path to mount it on.
func NewProfileServiceHandler(svc ProfileServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	generateProfile := connect.NewUnaryHandler(
		ProfileServiceGenerateProfileProcedure,
		svc.GenerateProfile,
		opts...,
	)
	getProfile := connect.NewUnaryHandler(
		ProfileServiceGetProfileProcedure,
		svc.GetProfile,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)

	return "/" + ProfileServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ProfileServiceGenerateProfileProcedure:
			generateProfile.ServeHTTP(w, r)
		case ProfileServiceGetProfileProcedure:
			getProfile.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ProfileServiceClient is a client for ProfileService.
type ProfileServiceClient interface {
	GenerateProfile(context.Context, *connect.Request[profilev1.GenerateProfileRequest]) (*connect.Response[profilev1.GenerateProfileResponse], error)
	GetProfile(context.Context, *connect.Request[profilev1.GetProfileRequest]) (*connect.Response[profilev1.GetProfileResponse], error)
}

type profileServiceClient struct {
	generateProfile *connect.Client[profilev1.GenerateProfileRequest, profilev1.GenerateProfileResponse]
	getProfile      *connect.Client[profilev1.GetProfileRequest, profilev1.GetProfileResponse]
}

// NewProfileServiceClient creates a client for the server at baseURL.
func NewProfileServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ProfileServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)

	return &profileServiceClient{
		generateProfile: connect.NewClient[profilev1.GenerateProfileRequest, profilev1.GenerateProfileResponse](
			httpClient,
			baseURL+ProfileServiceGenerateProfileProcedure,
			opts...,
		),
		getProfile: connect.NewClient[profilev1.GetProfileRequest, profilev1.GetProfileResponse](
			httpClient,
			baseURL+ProfileServiceGetProfileProcedure,
			append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
		),
	}
}

func (c *profileServiceClient) GenerateProfile(ctx context.Context, req *connect.Request[profilev1.GenerateProfileRequest]) (*connect.Response[profilev1.GenerateProfileResponse], error) {
	return c.generateProfile.CallUnary(ctx, req)
}

func (c *profileServiceClient) GetProfile(ctx context.Context, req *connect.Request[profilev1.GetProfileRequest]) (*connect.Response[profilev1.GetProfileResponse], error) {
	return c.getProfile.CallUnary(ctx, req)
}
