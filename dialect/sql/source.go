package sql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Resolver maps a logical data source name onto its connection string and
// provider name.
type Resolver interface {
	Resolve(name string) (connectionString, provider string, err error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (string, string, error)

// Resolve calls f(name).
func (f ResolverFunc) Resolve(name string) (string, string, error) { return f(name) }

// OpenFunc opens a driver for a provider and connection string.
type OpenFunc func(provider, connectionString string) (*Driver, error)

// Sources opens and caches one Driver (and so one connection pool) per
// logical data source name. Names are case-insensitive.
type Sources struct {
	resolver Resolver
	open     OpenFunc
	stats    *Stats

	mu      sync.Mutex
	drivers map[string]*Driver
}

// SourcesOption configures Sources.
type SourcesOption func(*Sources)

// WithOpenFunc replaces Open as the way drivers are created.
func WithOpenFunc(fn OpenFunc) SourcesOption {
	return func(s *Sources) {
		s.open = fn
	}
}

// WithSourceStats attaches s to every driver opened by the manager.
func WithSourceStats(st *Stats) SourcesOption {
	return func(s *Sources) {
		s.stats = st
	}
}

// NewSources returns a manager resolving names with r.
func NewSources(r Resolver, opts ...SourcesOption) *Sources {
	s := &Sources{
		resolver: r,
		open:     Open,
		drivers:  make(map[string]*Driver),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sourceKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register installs an already opened driver under name, replacing any
// cached one. The replaced driver is not closed.
func (s *Sources) Register(name string, drv *Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats != nil && drv.stats == nil {
		drv.WithStats(s.stats)
	}
	s.drivers[sourceKey(name)] = drv
}

// Driver returns the driver of the named data source, opening it on first use.
func (s *Sources) Driver(name string) (*Driver, error) {
	key := sourceKey(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if drv, ok := s.drivers[key]; ok {
		return drv, nil
	}
	if s.resolver == nil {
		return nil, fmt.Errorf("dialect/sql: no resolver for data source %q", name)
	}
	dsn, provider, err := s.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	drv, err := s.open(provider, dsn)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open data source %q: %w", name, err)
	}
	if s.stats != nil {
		drv.WithStats(s.stats)
	}
	s.drivers[key] = drv
	return drv, nil
}

// Session reserves a dedicated connection of the named data source.
func (s *Sources) Session(ctx context.Context, name string) (*Session, error) {
	drv, err := s.Driver(name)
	if err != nil {
		return nil, err
	}
	return drv.Session(ctx)
}

// Begin starts a transaction on the named data source.
func (s *Sources) Begin(ctx context.Context, name string, opts *TxOptions) (*Tx, error) {
	drv, err := s.Driver(name)
	if err != nil {
		return nil, err
	}
	return drv.BeginTx(ctx, opts)
}

// Names returns the names of the opened data sources, sorted.
func (s *Sources) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.drivers))
	for name := range s.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evict closes and forgets the named driver so the next use resolves it
// again. Evicting an unopened source is a no-op.
func (s *Sources) Evict(name string) error {
	key := sourceKey(name)
	s.mu.Lock()
	drv, ok := s.drivers[key]
	delete(s.drivers, key)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return drv.Close()
}

// Close closes every opened driver.
func (s *Sources) Close() error {
	s.mu.Lock()
	drivers := s.drivers
	s.drivers = make(map[string]*Driver)
	s.mu.Unlock()
	var errs []error
	for _, drv := range drivers {
		if err := drv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
