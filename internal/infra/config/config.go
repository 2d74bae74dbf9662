// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/tastemix/internal/domain/source"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Engine     EngineConfig     `yaml:"engine"`
	Weights    WeightsConfig    `yaml:"weights"`
	Spotify    SpotifyConfig    `yaml:"spotify"`
	LastFm     LastFmConfig     `yaml:"lastfm"`
	AppleMusic AppleMusicConfig `yaml:"applemusic"`
	Storage    StorageConfig    `yaml:"storage"`
	Users      []UserConfig     `yaml:"users" validate:"dive"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr     string `yaml:"addr" default:":8080"`
	APIToken string `yaml:"api_token" validate:"required"`
}

// EngineConfig represents profile generation configuration.
type EngineConfig struct {
	TopTracks    int           `yaml:"top_tracks" default:"30" validate:"gte=1,lte=100"`
	TopArtists   int           `yaml:"top_artists" default:"20" validate:"gte=1,lte=100"`
	TopGenres    int           `yaml:"top_genres" default:"15" validate:"gte=1,lte=100"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" default:"10s" validate:"gt=0"`
	Breaker      BreakerConfig `yaml:"breaker"`
}

// BreakerConfig represents the per-service circuit breaker configuration.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32        `yaml:"max_failures" default:"3" validate:"gte=1"`
	OpenTimeout time.Duration `yaml:"open_timeout" default:"1m" validate:"gt=0"`
}

// WeightsConfig represents the per-service weight table.
type WeightsConfig struct {
	Spotify    WeightConfig `yaml:"spotify"`
	AppleMusic WeightConfig `yaml:"applemusic"`
	LastFm     WeightConfig `yaml:"lastfm"`
}

// WeightConfig represents one service's weights. Zero values take the stock weight.
type WeightConfig struct {
	Base  float64 `yaml:"base" validate:"gte=0"`
	Genre float64 `yaml:"genre" validate:"gte=0"`
}

// SpotifyConfig represents Spotify API configuration.
// The refresh token is per user and lives in the user's connection settings.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Market       string `yaml:"market" validate:"omitempty,len=2"`
	TimeRange    string `yaml:"time_range" default:"medium_term" validate:"oneof=short_term medium_term long_term"`
	Limit        int    `yaml:"limit" default:"50" validate:"gte=1,lte=50"`
}

// LastFmConfig represents Last.fm API configuration.
type LastFmConfig struct {
	APIKey            string  `yaml:"api_key"`
	Period            string  `yaml:"period" default:"6month" validate:"oneof=7day 1month 3month 6month 12month overall"`
	Limit             int     `yaml:"limit" default:"50" validate:"gte=1,lte=100"`
	TagLimit          int     `yaml:"tag_limit" default:"5" validate:"gte=1,lte=20"`
	TagArtists        int     `yaml:"tag_artists" default:"20" validate:"gte=1,lte=100"`
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"5" validate:"gt=0"`
}

// AppleMusicConfig represents Apple Music API configuration.
type AppleMusicConfig struct {
	DeveloperToken string `yaml:"developer_token"`
	HistoryLimit   int    `yaml:"history_limit" default:"150" validate:"gte=1,lte=150"`
}

// StorageConfig represents profile storage configuration.
type StorageConfig struct {
	Driver string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite memory"`
	Path   string `yaml:"path" default:"tastemix.db"`
}

// UserConfig represents one user and the services they connected.
type UserConfig struct {
	ID          string             `yaml:"id" validate:"required"`
	Primary     string             `yaml:"primary" validate:"required"`
	Connections []ConnectionConfig `yaml:"connections" validate:"required,min=1,dive"`
}

// ConnectionConfig represents a single connected service.
// Settings are decoded by the service's fetcher factory.
type ConnectionConfig struct {
	Service  string         `yaml:"service" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFm.APIKey = v
	}
	if v := os.Getenv("APPLE_MUSIC_DEVELOPER_TOKEN"); v != "" {
		c.AppleMusic.DeveloperToken = v
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validateUsers(); err != nil {
		return err
	}

	return nil
}

// validateUsers checks service names and that credentials exist for every
// service a user connected.
func (c *Config) validateUsers() error {
	seen := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		if seen[u.ID] {
			return errors.Newf("duplicate user id: %s", u.ID)
		}
		seen[u.ID] = true

		primary, err := source.Parse(u.Primary)
		if err != nil {
			return errors.Wrapf(err, "invalid primary service for user %s", u.ID)
		}

		connected := make(map[source.Service]bool, len(u.Connections))
		for _, conn := range u.Connections {
			svc, err := source.Parse(conn.Service)
			if err != nil {
				return errors.Wrapf(err, "invalid connection for user %s", u.ID)
			}
			if connected[svc] {
				return errors.Newf("user %s connects %s twice", u.ID, svc)
			}
			connected[svc] = true

			if err := c.requireCredentials(svc); err != nil {
				return errors.Wrapf(err, "user %s", u.ID)
			}
		}

		if !connected[primary] {
			return errors.Newf("primary service %s of user %s is not connected", primary, u.ID)
		}
	}
	return nil
}

func (c *Config) requireCredentials(svc source.Service) error {
	switch svc {
	case source.ServiceSpotify:
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
			return errors.New("spotify client_id and client_secret are required")
		}
	case source.ServiceLastFm:
		if c.LastFm.APIKey == "" {
			return errors.New("lastfm api_key is required")
		}
	case source.ServiceAppleMusic:
		if c.AppleMusic.DeveloperToken == "" {
			return errors.New("applemusic developer_token is required")
		}
	}
	return nil
}

// WeightTable returns the configured weights, falling back to the stock table
// for values left unset.
func (c *Config) WeightTable() source.WeightTable {
	table := source.DefaultWeights()
	apply := func(svc source.Service, w WeightConfig) {
		entry := table[svc]
		if w.Base > 0 {
			entry.Base = w.Base
		}
		if w.Genre > 0 {
			entry.Genre = w.Genre
		}
		table[svc] = entry
	}
	apply(source.ServiceSpotify, c.Weights.Spotify)
	apply(source.ServiceAppleMusic, c.Weights.AppleMusic)
	apply(source.ServiceLastFm, c.Weights.LastFm)
	return table
}

// User returns the configuration of the given user.
func (c *Config) User(id string) (*UserConfig, bool) {
	for i := range c.Users {
		if c.Users[i].ID == id {
			return &c.Users[i], true
		}
	}
	return nil, false
}
