package store

import "context"

// RelationType is a directed, typed relationship between two graph nodes.
type RelationType string

const (
	// Patient relationships
	RelationHasCondition  RelationType = "HAS_CONDITION"
	RelationHasMedication RelationType = "HAS_MEDICATION"
	RelationHasAllergy    RelationType = "HAS_ALLERGY"
	RelationHasRiskFactor RelationType = "HAS_RISK_FACTOR"

	// Clinical relationships
	RelationDiagnosedWith RelationType = "DIAGNOSED_WITH"
	RelationTreatedWith   RelationType = "TREATED_WITH"
	RelationSymptomOf     RelationType = "SYMPTOM_OF"

	// Temporal relationships
	RelationPrecededBy     RelationType = "PRECEDED_BY"
	RelationFollowedBy     RelationType = "FOLLOWED_BY"
	RelationOccurredDuring RelationType = "OCCURRED_DURING"

	// Event and care relationships
	RelationTriggeredAlert RelationType = "TRIGGERED_ALERT"
	RelationAttendedBy     RelationType = "ATTENDED_BY"
	RelationLocatedIn      RelationType = "LOCATED_IN"
)

// Edge is a directed relationship. An edge is uniquely identified by the
// (Source, Target, Relation) triple: upserting the same triple overwrites
// its properties instead of duplicating it.
type Edge struct {
	Source     string
	Target     string
	Relation   RelationType
	Properties map[string]any
	CreatedTs  int64
}

// FindEdge filters edge listing. Nil fields are wildcards.
type FindEdge struct {
	Source   *string
	Target   *string
	Relation *RelationType
}

// DeleteEdge identifies an edge triple to remove.
type DeleteEdge struct {
	Source   string
	Target   string
	Relation RelationType
}

// UpsertEdge creates or replaces an edge by its (source, target, relation) triple.
func (s *Store) UpsertEdge(ctx context.Context, upsert *Edge) (*Edge, error) {
	edge, err := s.driver.UpsertEdge(ctx, upsert)
	if err != nil {
		return nil, wrapIO(err, "upsert edge")
	}
	return edge, nil
}

// ListEdges lists edges matching the filter. Edges whose endpoints have been
// deleted are still returned; it is the caller's traversal that skips them.
func (s *Store) ListEdges(ctx context.Context, find *FindEdge) ([]*Edge, error) {
	edges, err := s.driver.ListEdges(ctx, find)
	if err != nil {
		return nil, wrapIO(err, "list edges")
	}
	return edges, nil
}

// DeleteEdge removes an edge triple and reports whether it existed.
func (s *Store) DeleteEdge(ctx context.Context, delete *DeleteEdge) (bool, error) {
	existed, err := s.driver.DeleteEdge(ctx, delete)
	if err != nil {
		return false, wrapIO(err, "delete edge")
	}
	return existed, nil
}
