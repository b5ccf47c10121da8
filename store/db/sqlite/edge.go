package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sentinelcare/sentinel/store"
)

func (d *DB) UpsertEdge(ctx context.Context, upsert *store.Edge) (*store.Edge, error) {
	props, err := marshalProps(upsert.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal edge properties: %w", err)
	}
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}

	stmt := `INSERT INTO edge (source, target, relation, properties, created_ts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source, target, relation) DO UPDATE SET
			properties = excluded.properties`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.Source,
		upsert.Target,
		upsert.Relation,
		props,
		upsert.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert edge %s-[%s]->%s: %w", upsert.Source, upsert.Relation, upsert.Target, err)
	}
	return upsert, nil
}

func (d *DB) ListEdges(ctx context.Context, find *store.FindEdge) ([]*store.Edge, error) {
	if find == nil {
		find = &store.FindEdge{}
	}

	where, args := []string{"1 = 1"}, []any{}
	if find.Source != nil {
		where, args = append(where, "source = ?"), append(args, *find.Source)
	}
	if find.Target != nil {
		where, args = append(where, "target = ?"), append(args, *find.Target)
	}
	if find.Relation != nil {
		where, args = append(where, "relation = ?"), append(args, *find.Relation)
	}

	query := `SELECT source, target, relation, properties, created_ts
		FROM edge WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts, source, target`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	defer rows.Close()

	list := []*store.Edge{}
	for rows.Next() {
		edge := &store.Edge{}
		var props string
		if err := rows.Scan(
			&edge.Source,
			&edge.Target,
			&edge.Relation,
			&props,
			&edge.CreatedTs,
		); err != nil {
			return nil, err
		}
		properties, err := unmarshalProps(props)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal edge properties: %w", err)
		}
		edge.Properties = properties
		list = append(list, edge)
	}
	return list, rows.Err()
}

func (d *DB) DeleteEdge(ctx context.Context, delete *store.DeleteEdge) (bool, error) {
	result, err := d.db.ExecContext(ctx,
		"DELETE FROM edge WHERE source = ? AND target = ? AND relation = ?",
		delete.Source, delete.Target, delete.Relation,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete edge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
