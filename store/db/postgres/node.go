package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sentinelcare/sentinel/store"
)

func (d *DB) UpsertNode(ctx context.Context, upsert *store.Node) (*store.Node, error) {
	props, err := marshalProps(upsert.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node properties: %w", err)
	}

	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	fields := []string{"id", "type", "name", "description", "properties", "created_ts", "updated_ts"}
	args := []any{upsert.ID, upsert.Type, upsert.Name, upsert.Description, props, upsert.CreatedTs, upsert.UpdatedTs}

	stmt := `INSERT INTO node (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			properties = EXCLUDED.properties,
			updated_ts = EXCLUDED.updated_ts
		RETURNING created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&upsert.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert node %s: %w", upsert.ID, err)
	}
	return upsert, nil
}

func (d *DB) GetNode(ctx context.Context, id string) (*store.Node, error) {
	stmt := `SELECT id, type, name, description, properties, created_ts, updated_ts
		FROM node WHERE id = $1`
	node, err := scanNode(d.db.QueryRowContext(ctx, stmt, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return node, err
}

func (d *DB) ListNodes(ctx context.Context, find *store.FindNode) ([]*store.Node, error) {
	if find == nil {
		find = &store.FindNode{}
	}

	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Type != nil {
		where, args = append(where, "type = "+placeholder(len(args)+1)), append(args, *find.Type)
	}
	if find.NameLike != nil {
		where, args = append(where, "name ILIKE "+placeholder(len(args)+1)), append(args, "%"+*find.NameLike+"%")
	}

	query := `SELECT id, type, name, description, properties, created_ts, updated_ts
		FROM node WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
		if find.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	list := []*store.Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, node)
	}
	return list, rows.Err()
}

func (d *DB) DeleteNode(ctx context.Context, delete *store.DeleteNode) (bool, error) {
	result, err := d.db.ExecContext(ctx, "DELETE FROM node WHERE id = $1", delete.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete node %s: %w", delete.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*store.Node, error) {
	node := &store.Node{}
	var props string
	if err := row.Scan(
		&node.ID,
		&node.Type,
		&node.Name,
		&node.Description,
		&props,
		&node.CreatedTs,
		&node.UpdatedTs,
	); err != nil {
		return nil, err
	}
	properties, err := unmarshalProps(props)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal node properties: %w", err)
	}
	node.Properties = properties
	return node, nil
}
