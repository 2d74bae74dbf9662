package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	profilev1 "github.com/osa030/tastemix/internal/api/profilev1"
	"github.com/osa030/tastemix/internal/api/profilev1/profilev1connect"
	"github.com/osa030/tastemix/internal/app/profile"
	"github.com/osa030/tastemix/internal/domain/audio"
	taste "github.com/osa030/tastemix/internal/domain/profile"
	"github.com/osa030/tastemix/internal/domain/source"
)

const testToken = "test-api-token"

type fakeGenerator struct {
	result *profile.Result
	err    error
	stored map[string]taste.Profile
}

func (f *fakeGenerator) Generate(ctx context.Context, userID string) (*profile.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	r.Profile.UserID = userID
	return &r, nil
}

func (f *fakeGenerator) Get(ctx context.Context, userID string) (taste.Profile, error) {
	p, ok := f.stored[userID]
	if !ok {
		return taste.Profile{}, errors.Wrapf(taste.ErrNotFound, "user=%s", userID)
	}
	return p, nil
}

func sampleResult() *profile.Result {
	return &profile.Result{
		Profile: taste.Profile{
			SourceServices: []source.Service{source.ServiceSpotify},
			TopGenres:      []string{"electronic"},
			AudioFeatures:  audio.NeutralFeatures(),
			PartyReadiness: 66,
			GeneratedAt:    time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		},
		Stats: profile.Stats{
			Services:           []source.Service{source.ServiceSpotify},
			Excluded:           map[source.Service]string{source.ServiceLastFm: "timed out"},
			MergedTracks:       12,
			CrossServiceTracks: 3,
			Policy:             "linear",
		},
	}
}

func newTestClient(t *testing.T, gen ProfileGenerator, token string) profilev1connect.ProfileServiceClient {
	t.Helper()

	mux := http.NewServeMux()
	path, handler := profilev1connect.NewProfileServiceHandler(
		NewProfileService(gen),
		connect.WithInterceptors(NewAPITokenInterceptor(testToken)),
	)
	mux.Handle(path, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return profilev1connect.NewProfileServiceClient(
		server.Client(),
		server.URL,
		connect.WithInterceptors(NewAPITokenInterceptor(token)),
	)
}

func TestProfileService_GenerateProfile(t *testing.T) {
	client := newTestClient(t, &fakeGenerator{result: sampleResult()}, testToken)

	resp, err := client.GenerateProfile(context.Background(), connect.NewRequest(&profilev1.GenerateProfileRequest{UserID: "alice"}))
	require.NoError(t, err)

	p := resp.Msg.Profile
	require.NotNil(t, p)
	assert.Equal(t, "alice", p.UserID)
	assert.Equal(t, 66, p.PartyReadiness)
	assert.Equal(t, []string{"electronic"}, p.TopGenres)
	assert.Equal(t, []source.Service{source.ServiceSpotify}, p.SourceServices)

	stats := resp.Msg.Stats
	require.NotNil(t, stats)
	assert.Equal(t, []string{"spotify"}, stats.Services)
	assert.Equal(t, map[string]string{"lastfm": "timed out"}, stats.Excluded)
	assert.Equal(t, 3, stats.CrossServiceTracks)
	assert.Equal(t, "linear", stats.Policy)
}

func TestProfileService_GetProfile(t *testing.T) {
	stored := sampleResult().Profile
	stored.UserID = "alice"
	client := newTestClient(t, &fakeGenerator{stored: map[string]taste.Profile{"alice": stored}}, testToken)

	resp, err := client.GetProfile(context.Background(), connect.NewRequest(&profilev1.GetProfileRequest{UserID: "alice"}))
	require.NoError(t, err)
	assert.Equal(t, stored, *resp.Msg.Profile)

	_, err = client.GetProfile(context.Background(), connect.NewRequest(&profilev1.GetProfileRequest{UserID: "bob"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestProfileService_ErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		err      error
		expected connect.Code
	}{
		{
			name:     "missing user id",
			userID:   " ",
			expected: connect.CodeInvalidArgument,
		},
		{
			name:     "no services connected",
			userID:   "alice",
			err:      errors.Wrap(profile.ErrNoServicesConnected, "user=alice"),
			expected: connect.CodeFailedPrecondition,
		},
		{
			name:     "every service failed",
			userID:   "alice",
			err:      errors.Wrap(profile.ErrNoDataAvailable, "user=alice"),
			expected: connect.CodeUnavailable,
		},
		{
			name:     "unexpected failure",
			userID:   "alice",
			err:      errors.New("disk full"),
			expected: connect.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeGenerator{result: sampleResult(), err: tt.err}, testToken)

			_, err := client.GenerateProfile(context.Background(), connect.NewRequest(&profilev1.GenerateProfileRequest{UserID: tt.userID}))
			require.Error(t, err)
			assert.Equal(t, tt.expected, connect.CodeOf(err))
		})
	}
}

func TestAPITokenInterceptor(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid token", token: testToken, wantErr: false},
		{name: "wrong token", token: "nope", wantErr: true},
		{name: "missing token", token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &fakeGenerator{result: sampleResult()}, tt.token)

			_, err := client.GenerateProfile(context.Background(), connect.NewRequest(&profilev1.GenerateProfileRequest{UserID: "alice"}))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
