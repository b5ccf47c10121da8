// Package store provides persistent access to the patient graph: typed nodes
// and directed, typed edges with upsert semantics.
//
// The store is the system of record. Any persistence failure is wrapped with
// ErrStoreIO so callers can distinguish "memory unavailable" (fatal for the
// enclosing session) from recoverable domain conditions.
//
// Concurrency contract: writes to the same node or edge key are serialized by
// the underlying database's upsert; concurrent writers to the same key from
// different processes get last-write-wins semantics.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sentinelcare/sentinel/internal/profile"
	"github.com/sentinelcare/sentinel/store/cache"
)

// ErrStoreIO marks unrecoverable persistence failures. The graph store is the
// system of record, so callers should halt the enclosing session on it rather
// than continue with a partial graph.
var ErrStoreIO = errors.New("graph store unavailable")

func wrapIO(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(ErrStoreIO, "%s: %v", op, err)
}

// Store provides cached access to the patient graph.
type Store struct {
	profile *profile.Profile
	driver  Driver

	nodeCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		nodeCache: cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        1000,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Vacuum prunes edges left dangling by node deletion. Traversals already
// skip dangling edges; vacuuming keeps the edge table from accumulating them.
func (s *Store) Vacuum(ctx context.Context) error {
	return wrapIO(s.driver.Vacuum(ctx), "vacuum")
}

// Migrate prepares the backing schema.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.driver.Migrate(ctx); err != nil {
		return wrapIO(err, "migrate")
	}
	return nil
}

// Stats returns graph statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.driver.Stats(ctx)
	if err != nil {
		return nil, wrapIO(err, "stats")
	}
	return stats, nil
}

func (s *Store) Close() error {
	s.nodeCache.Close()
	return s.driver.Close()
}
