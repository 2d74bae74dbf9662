package adapter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tastemix/internal/domain/source"
	"github.com/osa030/tastemix/internal/infra/applemusic"
	"github.com/osa030/tastemix/internal/infra/config"
	"github.com/osa030/tastemix/internal/infra/lastfm"
	"github.com/osa030/tastemix/internal/infra/spotify"
)

// SpotifySettings are the per-user settings of a Spotify connection.
type SpotifySettings struct {
	RefreshToken string `yaml:"refresh_token" mapstructure:"refresh_token" validate:"required"`
	TimeRange    string `yaml:"time_range" mapstructure:"time_range"`
}

// LastFmSettings are the per-user settings of a Last.fm connection.
type LastFmSettings struct {
	Username string `yaml:"username" mapstructure:"username" validate:"required"`
	Period   string `yaml:"period" mapstructure:"period"`
}

// AppleMusicSettings are the per-user settings of an Apple Music connection.
type AppleMusicSettings struct {
	UserToken string `yaml:"user_token" mapstructure:"user_token" validate:"required"`
}

// decodeSettings decodes, defaults and validates connection settings.
func decodeSettings(settings map[string]any, out any) error {
	if len(settings) == 0 {
		return errors.New("settings are required")
	}
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

// factory builds fetchers from configuration. Clients that are not bound to
// a user are shared between users.
type factory struct {
	cfg    *config.Config
	lastfm *lastfm.Client
}

func (f *factory) newFetcher(ctx context.Context, conn config.ConnectionConfig) (Fetcher, error) {
	svc, err := source.Parse(conn.Service)
	if err != nil {
		return nil, err
	}

	switch svc {
	case source.ServiceSpotify:
		var s SpotifySettings
		if err := decodeSettings(conn.Settings, &s); err != nil {
			return nil, err
		}
		timeRange := f.cfg.Spotify.TimeRange
		if s.TimeRange != "" {
			timeRange = s.TimeRange
		}
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     f.cfg.Spotify.ClientID,
			ClientSecret: f.cfg.Spotify.ClientSecret,
			RefreshToken: s.RefreshToken,
			Market:       f.cfg.Spotify.Market,
			TimeRange:    timeRange,
			Limit:        f.cfg.Spotify.Limit,
		})
		if err != nil {
			return nil, err
		}
		return NewSpotifyFetcher(client), nil

	case source.ServiceLastFm:
		var s LastFmSettings
		if err := decodeSettings(conn.Settings, &s); err != nil {
			return nil, err
		}
		if f.lastfm == nil {
			client, err := lastfm.New(lastfm.Config{
				APIKey:            f.cfg.LastFm.APIKey,
				RequestsPerSecond: f.cfg.LastFm.RequestsPerSecond,
			})
			if err != nil {
				return nil, err
			}
			f.lastfm = client
		}
		period := f.cfg.LastFm.Period
		if s.Period != "" {
			period = s.Period
		}
		return NewLastFmFetcher(f.lastfm, s.Username, LastFmOptions{
			Period:     period,
			Limit:      f.cfg.LastFm.Limit,
			TagLimit:   f.cfg.LastFm.TagLimit,
			TagArtists: f.cfg.LastFm.TagArtists,
		}), nil

	case source.ServiceAppleMusic:
		var s AppleMusicSettings
		if err := decodeSettings(conn.Settings, &s); err != nil {
			return nil, err
		}
		client, err := applemusic.New(applemusic.Config{
			DeveloperToken: f.cfg.AppleMusic.DeveloperToken,
			UserToken:      s.UserToken,
			HistoryLimit:   f.cfg.AppleMusic.HistoryLimit,
		})
		if err != nil {
			return nil, err
		}
		return NewAppleMusicFetcher(client, 0), nil
	}

	return nil, errors.Newf("unsupported service: %s", svc)
}

// NewRegistryFromConfig creates the connection registry for every configured user.
func NewRegistryFromConfig(ctx context.Context, cfg *config.Config) (*Registry, error) {
	f := &factory{cfg: cfg}
	registry := NewRegistry()

	for _, ucfg := range cfg.Users {
		primary, err := source.Parse(ucfg.Primary)
		if err != nil {
			return nil, errors.Wrapf(err, "user %s", ucfg.ID)
		}

		conn := &Connection{UserID: ucfg.ID, Primary: primary}
		for i, ccfg := range ucfg.Connections {
			zlog.Debug().Msgf("creating fetcher: user=%s index=%d service=%s", ucfg.ID, i+1, ccfg.Service)
			fetcher, err := f.newFetcher(ctx, ccfg)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to create fetcher (user %s, service %s)", ucfg.ID, ccfg.Service)
			}
			conn.Fetchers = append(conn.Fetchers, fetcher)
		}

		registry.Register(conn)
		zlog.Info().Msgf("registered user: id=%s primary=%s services=%v", conn.UserID, conn.Primary, conn.Services())
	}

	return registry, nil
}
