package adapter

import (
	"sort"
	"sync"

	"github.com/osa030/tastemix/internal/domain/source"
)

// Connection is the set of services one user connected.
type Connection struct {
	UserID   string
	Primary  source.Service
	Fetchers []Fetcher
}

// Services returns the connected services in priority order.
func (c *Connection) Services() []source.Service {
	services := make([]source.Service, 0, len(c.Fetchers))
	for _, f := range c.Fetchers {
		services = append(services, f.Service())
	}
	return source.PriorityOrder(c.Primary, services)
}

// Registry holds user connections keyed by user ID.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

// NewRegistry creates a registry holding the given connections.
func NewRegistry(conns ...*Connection) *Registry {
	r := &Registry{connections: make(map[string]*Connection, len(conns))}
	for _, c := range conns {
		r.Register(c)
	}
	return r
}

// Register adds or replaces a user's connection.
func (r *Registry) Register(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[c.UserID] = c
}

// Lookup returns the connection of a user.
func (r *Registry) Lookup(userID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connections[userID]
	return c, ok
}

// Users returns the registered user IDs in sorted order.
func (r *Registry) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.connections))
	for id := range r.connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
