package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a graph store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the node and edge tables if they do not exist.
	Migrate(ctx context.Context) error

	// Node related methods.
	UpsertNode(ctx context.Context, upsert *Node) (*Node, error)
	GetNode(ctx context.Context, id string) (*Node, error)
	ListNodes(ctx context.Context, find *FindNode) ([]*Node, error)
	DeleteNode(ctx context.Context, delete *DeleteNode) (bool, error)

	// Edge related methods.
	UpsertEdge(ctx context.Context, upsert *Edge) (*Edge, error)
	ListEdges(ctx context.Context, find *FindEdge) ([]*Edge, error)
	DeleteEdge(ctx context.Context, delete *DeleteEdge) (bool, error)

	// Vacuum prunes edges whose endpoints no longer exist.
	Vacuum(ctx context.Context) error

	// Stats returns node counts by type plus the edge count.
	Stats(ctx context.Context) (*Stats, error)
}

// Stats describes the stored graph.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	NodesByType map[NodeType]int
}
