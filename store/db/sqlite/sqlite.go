package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/sentinelcare/sentinel/internal/profile"
	"github.com/sentinelcare/sentinel/store"
)

// DB is the SQLite implementation of store.Driver. It is the default backend:
// one local file, no external service, durable across restarts.
type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database referenced by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// WAL keeps readers unblocked during the engine's write-back at phase
	// boundaries; busy_timeout covers overlapping sessions on other patients.
	dsn := profile.DSN + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite db %s", profile.DSN)
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS node (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	properties TEXT NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_node_type ON node (type);

CREATE TABLE IF NOT EXISTS edge (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	relation TEXT NOT NULL,
	properties TEXT NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL,
	PRIMARY KEY (source, target, relation)
);
CREATE INDEX IF NOT EXISTS idx_edge_source ON edge (source);
CREATE INDEX IF NOT EXISTS idx_edge_target ON edge (target);
`

// Migrate creates the node and edge tables if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate sqlite schema")
	}
	return nil
}

// Vacuum deletes edges whose source or target node is gone.
func (d *DB) Vacuum(ctx context.Context) error {
	stmt := `DELETE FROM edge WHERE
		source NOT IN (SELECT id FROM node) OR
		target NOT IN (SELECT id FROM node)`
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to vacuum dangling edges")
	}
	return nil
}

// Stats returns node counts by type plus the edge count.
func (d *DB) Stats(ctx context.Context) (*store.Stats, error) {
	stats := &store.Stats{NodesByType: map[store.NodeType]int{}}

	rows, err := d.db.QueryContext(ctx, "SELECT type, COUNT(*) FROM node GROUP BY type")
	if err != nil {
		return nil, errors.Wrap(err, "failed to count nodes")
	}
	defer rows.Close()
	for rows.Next() {
		var nodeType store.NodeType
		var count int
		if err := rows.Scan(&nodeType, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan node count")
		}
		stats.NodesByType[nodeType] = count
		stats.NodeCount += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM edge").Scan(&stats.EdgeCount); err != nil {
		return nil, errors.Wrap(err, "failed to count edges")
	}
	return stats, nil
}
