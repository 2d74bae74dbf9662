// Package source provides the streaming service identifiers.
package source

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Service identifies a connected streaming service.
// The set is closed: every supported service has a constant below.
type Service string

const (
	ServiceSpotify    Service = "spotify"
	ServiceAppleMusic Service = "applemusic"
	ServiceLastFm     Service = "lastfm"
)

// ErrUnknownService is returned when a service name is not supported.
var ErrUnknownService = errors.New("unknown service")

// All returns every supported service.
func All() []Service {
	return []Service{ServiceAppleMusic, ServiceLastFm, ServiceSpotify}
}

// Parse converts a config/RPC name into a Service.
func Parse(name string) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "spotify":
		return ServiceSpotify, nil
	case "applemusic", "apple_music", "apple-music":
		return ServiceAppleMusic, nil
	case "lastfm", "last.fm", "last_fm":
		return ServiceLastFm, nil
	default:
		return "", errors.Wrapf(ErrUnknownService, "service %q", name)
	}
}

// Valid reports whether s is one of the supported services.
func (s Service) Valid() bool {
	switch s {
	case ServiceSpotify, ServiceAppleMusic, ServiceLastFm:
		return true
	}
	return false
}

// String returns the service name.
func (s Service) String() string {
	return string(s)
}

// PriorityOrder returns services with primary first and the rest sorted by name.
// Services that appear twice are kept once. An invalid primary is ignored.
func PriorityOrder(primary Service, services []Service) []Service {
	rest := make([]Service, 0, len(services))
	seen := make(map[Service]bool, len(services))
	hasPrimary := false
	for _, s := range services {
		if seen[s] {
			continue
		}
		seen[s] = true
		if s == primary {
			hasPrimary = true
			continue
		}
		rest = append(rest, s)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })

	if !hasPrimary {
		return rest
	}
	return append([]Service{primary}, rest...)
}
