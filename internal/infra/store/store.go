// Package store provides profile persistence keyed by user ID.
package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"

	"github.com/osa030/tastemix/internal/domain/profile"
)

// Store persists the latest profile of each user.
type Store interface {
	Put(ctx context.Context, p profile.Profile) error
	Get(ctx context.Context, userID string) (profile.Profile, error)
	Close() error
}

// Open opens the store for the given driver ("sqlite" or "memory").
func Open(driver, path string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.Newf("unsupported storage driver: %s", driver)
	}
}

func encode(p profile.Profile) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode profile")
	}
	return data, nil
}

func decode(data []byte) (profile.Profile, error) {
	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return profile.Profile{}, errors.Wrap(err, "failed to decode profile")
	}
	return p, nil
}
