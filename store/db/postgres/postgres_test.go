package postgres

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelcare/sentinel/store"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mockDB.Close()
	})
	return &DB{db: mockDB}, mock
}

func TestUpsertNodeQuery(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectQuery(`INSERT INTO node`).
		WithArgs("n1", store.NodeTypePatient, "Marie", "", `{"age":67}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_ts"}).AddRow(int64(1700000000)))

	node, err := d.UpsertNode(context.Background(), &store.Node{
		ID:         "n1",
		Type:       store.NodeTypePatient,
		Name:       "Marie",
		Properties: map[string]any{"age": 67},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), node.CreatedTs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNodeNotFound(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT id, type, name, description, properties, created_ts, updated_ts`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "name", "description", "properties", "created_ts", "updated_ts"}))

	node, err := d.GetNode(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, node)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNodeScansProperties(t *testing.T) {
	d, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "type", "name", "description", "properties", "created_ts", "updated_ts"}).
		AddRow("evt", "EVENT", "HYPOXEMIA", "", `{"severity":"high"}`, int64(1700000000), int64(1700000000))
	mock.ExpectQuery(`SELECT id, type, name, description, properties, created_ts, updated_ts`).
		WithArgs("evt").
		WillReturnRows(rows)

	node, err := d.GetNode(context.Background(), "evt")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, store.NodeTypeEvent, node.Type)
	assert.Equal(t, "high", node.Properties["severity"])
}

func TestListNodesBuildsFilters(t *testing.T) {
	d, mock := newMockDB(t)

	nodeType := store.NodeTypeCondition
	like := "cop"
	rows := sqlmock.NewRows([]string{"id", "type", "name", "description", "properties", "created_ts", "updated_ts"}).
		AddRow("c1", "CONDITION", "COPD", "", "{}", int64(1700000000), int64(1700000000))
	mock.ExpectQuery(`type = \$1 AND name ILIKE \$2`).
		WithArgs(nodeType, "%cop%").
		WillReturnRows(rows)

	nodes, err := d.ListNodes(context.Background(), &store.FindNode{Type: &nodeType, NameLike: &like})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "COPD", nodes[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertEdgeQuery(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO edge`).
		WithArgs("p1", "c1", store.RelationHasCondition, "{}", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := d.UpsertEdge(context.Background(), &store.Edge{
		Source:   "p1",
		Target:   "c1",
		Relation: store.RelationHasCondition,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEdgeReportsExistence(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectExec(`DELETE FROM edge`).
		WithArgs("p1", "c1", store.RelationHasCondition).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM edge`).
		WithArgs("p1", "c1", store.RelationHasCondition).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := d.DeleteEdge(context.Background(), &store.DeleteEdge{Source: "p1", Target: "c1", Relation: store.RelationHasCondition})
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = d.DeleteEdge(context.Background(), &store.DeleteEdge{Source: "p1", Target: "c1", Relation: store.RelationHasCondition})
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStatsAggregates(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT type, COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).
			AddRow("PATIENT", 1).
			AddRow("EVENT", 3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM edge`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	stats, err := d.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.NodeCount)
	assert.Equal(t, 4, stats.EdgeCount)
	assert.Equal(t, 3, stats.NodesByType[store.NodeTypeEvent])
}

func TestVacuumDeletesDanglingEdges(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectExec(`DELETE FROM edge WHERE`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, d.Vacuum(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
