// Package db selects the concrete graph store driver.
package db

import (
	"github.com/pkg/errors"

	"github.com/sentinelcare/sentinel/internal/profile"
	"github.com/sentinelcare/sentinel/store"
	"github.com/sentinelcare/sentinel/store/db/postgres"
	"github.com/sentinelcare/sentinel/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// SQLite is the default: a single local file, durable across restarts, loadable
// incrementally (nodes and edges are independent rows keyed by id/triple).
// PostgreSQL is the production option for long-running deployments.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
