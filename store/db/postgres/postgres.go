package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/sentinelcare/sentinel/internal/profile"
	"github.com/sentinelcare/sentinel/store"
)

// DB is the PostgreSQL implementation of store.Driver, intended for
// long-running deployments where patient history accumulates over months.
type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the PostgreSQL database referenced by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Sessions are sequential per patient; a small pool covers the handful of
	// concurrent patients a bedside deployment sees.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
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
	properties JSONB NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_node_type ON node (type);

CREATE TABLE IF NOT EXISTS edge (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	relation TEXT NOT NULL,
	properties JSONB NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL,
	PRIMARY KEY (source, target, relation)
);
CREATE INDEX IF NOT EXISTS idx_edge_source ON edge (source);
CREATE INDEX IF NOT EXISTS idx_edge_target ON edge (target);
`

// Migrate creates the node and edge tables if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate postgres schema")
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
