package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/osa030/tastemix/internal/app/adapter"
	taste "github.com/osa030/tastemix/internal/domain/profile"
	"github.com/osa030/tastemix/internal/domain/source"
)

var (
	// ErrNoServicesConnected is returned when the user has no connected service.
	ErrNoServicesConnected = errors.New("no services connected")
	// ErrNoDataAvailable is returned when every connected service failed.
	ErrNoDataAvailable = errors.New("no data available from connected services")
)

// Store persists profiles keyed by user ID.
type Store interface {
	// Put replaces the stored profile of p.UserID.
	Put(ctx context.Context, p taste.Profile) error
	// Get returns the stored profile or taste.ErrNotFound.
	Get(ctx context.Context, userID string) (taste.Profile, error)
}

// Connections looks up the services a user connected.
type Connections interface {
	Lookup(userID string) (*adapter.Connection, bool)
}

// Result is the outcome of one generation.
type Result struct {
	Profile taste.Profile
	Stats   Stats
}

// Config represents generation settings.
type Config struct {
	FetchTimeout time.Duration
	// BreakerMaxFailures consecutive failures open a user's breaker for a service.
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// Service fetches, assembles and stores profiles.
type Service struct {
	connections Connections
	store       Store
	assembler   *Assembler
	config      Config
	now         func() time.Time

	// Regenerations for the same user are coalesced.
	group singleflight.Group

	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker[adapter.Payload]
}

// NewService creates a new profile service.
func NewService(connections Connections, store Store, assembler *Assembler, cfg Config) *Service {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 3
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = time.Minute
	}

	return &Service{
		connections: connections,
		store:       store,
		assembler:   assembler,
		config:      cfg,
		now:         time.Now,
		breakers:    make(map[string]*gobreaker.CircuitBreaker[adapter.Payload]),
	}
}

// Generate builds a fresh profile for userID and stores it.
// Once started, generation runs to completion even if ctx is canceled;
// the caller only stops waiting.
func (s *Service) Generate(ctx context.Context, userID string) (*Result, error) {
	ch := s.group.DoChan(userID, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), userID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			zlog.Debug().Msgf("joined in-flight generation: user=%s", userID)
		}
		return res.Val.(*Result), nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "generation continues in background")
	}
}

// Get returns the last stored profile of userID.
func (s *Service) Get(ctx context.Context, userID string) (taste.Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return taste.Profile{}, errors.Wrapf(err, "failed to load profile: user=%s", userID)
	}
	return p, nil
}

func (s *Service) generate(ctx context.Context, userID string) (*Result, error) {
	start := s.now()

	conn, ok := s.connections.Lookup(userID)
	if !ok || len(conn.Fetchers) == 0 {
		return nil, errors.Wrapf(ErrNoServicesConnected, "user=%s", userID)
	}

	batches, excluded := s.fetchAll(ctx, conn)
	if len(batches) == 0 {
		zlog.Warn().Msgf("every service failed: user=%s excluded=%v", userID, excluded)
		return nil, errors.Wrapf(ErrNoDataAvailable, "user=%s", userID)
	}

	p, stats := s.assembler.Assemble(userID, conn.Primary, batches, s.now())
	stats.Excluded = excluded

	if err := s.store.Put(ctx, p); err != nil {
		return nil, errors.Wrapf(err, "failed to store profile: user=%s", userID)
	}

	zlog.Info().Msgf("profile generated: user=%s services=%v tracks=%d artists=%d genres=%d cross_service=%d readiness=%d elapsed=%s",
		userID, stats.Services, len(p.TopTracks), len(p.TopArtists), len(p.TopGenres),
		stats.CrossServiceTracks, p.PartyReadiness, time.Since(start).Round(time.Millisecond))

	return &Result{Profile: p, Stats: stats}, nil
}

type fetchResult struct {
	service source.Service
	batch   adapter.Batch
	err     error
}

// fetchAll fetches every connected service in parallel. A service that fails
// or exceeds the fetch timeout is excluded with the reason.
func (s *Service) fetchAll(ctx context.Context, conn *adapter.Connection) ([]adapter.Batch, map[source.Service]string) {
	results := make([]fetchResult, len(conn.Fetchers))

	var wg sync.WaitGroup
	for i, f := range conn.Fetchers {
		wg.Add(1)
		go func(i int, f adapter.Fetcher) {
			defer wg.Done()
			results[i] = s.fetchOne(ctx, conn.UserID, f)
		}(i, f)
	}
	wg.Wait()

	var batches []adapter.Batch
	excluded := make(map[source.Service]string)
	for _, r := range results {
		if r.err != nil {
			zlog.Warn().Err(r.err).Msgf("excluding service: user=%s service=%s", conn.UserID, r.service)
			excluded[r.service] = r.err.Error()
			continue
		}
		batches = append(batches, r.batch)
	}
	return batches, excluded
}

type fetchOutcome struct {
	payload adapter.Payload
	err     error
}

// fetchOne fetches one service within the fetch timeout. A fetcher still
// running at the deadline is abandoned; its late result is discarded.
func (s *Service) fetchOne(ctx context.Context, userID string, f adapter.Fetcher) fetchResult {
	res := fetchResult{service: f.Service()}

	ctx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	done := make(chan fetchOutcome, 1)
	go func() {
		var out fetchOutcome
		defer func() {
			if r := recover(); r != nil {
				out = fetchOutcome{err: errors.Newf("fetch panicked: %v", r)}
			}
			done <- out
		}()
		out.payload, out.err = s.breaker(userID, res.service).Execute(func() (adapter.Payload, error) {
			return f.Fetch(ctx)
		})
	}()

	var out fetchOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		zlog.Debug().Msgf("abandoning fetch: user=%s service=%s", userID, res.service)
		out.err = ctx.Err()
	}

	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) {
			out.err = errors.Wrapf(out.err, "timed out after %s", s.config.FetchTimeout)
		}
		res.err = out.err
		return res
	}

	res.batch = adapter.Adapt(out.payload)
	res.batch.Service = res.service
	return res
}

// breaker returns the circuit breaker guarding one user's service.
func (s *Service) breaker(userID string, svc source.Service) *gobreaker.CircuitBreaker[adapter.Payload] {
	key := fmt.Sprintf("%s/%s", userID, svc)

	s.breakersMu.Lock()
	defer s.breakersMu.Unlock()

	if cb, ok := s.breakers[key]; ok {
		return cb
	}

	maxFailures := s.config.BreakerMaxFailures
	cb := gobreaker.NewCircuitBreaker[adapter.Payload](gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Timeout:     s.config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zlog.Warn().Msgf("breaker state changed: name=%s from=%s to=%s", name, from, to)
		},
	})
	s.breakers[key] = cb
	return cb
}
