package store

import (
	"context"
	"sync"

	"github.com/osa030/tastemix/internal/domain/profile"
)

// Memory keeps encoded profiles in memory. Stored profiles share no memory
// with the caller's values.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{profiles: make(map[string][]byte)}
}

func (m *Memory) Put(ctx context.Context, p profile.Profile) error {
	data, err := encode(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = data
	return nil
}

func (m *Memory) Get(ctx context.Context, userID string) (profile.Profile, error) {
	m.mu.RLock()
	data, ok := m.profiles[userID]
	m.mu.RUnlock()
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return decode(data)
}

func (m *Memory) Close() error {
	return nil
}
