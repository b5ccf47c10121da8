package store

import "context"

// NodeType is the closed set of node kinds in the patient graph.
type NodeType string

const (
	NodeTypePatient      NodeType = "PATIENT"
	NodeTypeCondition    NodeType = "CONDITION"
	NodeTypeMedication   NodeType = "MEDICATION"
	NodeTypeAllergy      NodeType = "ALLERGY"
	NodeTypeRiskFactor   NodeType = "RISK_FACTOR"
	NodeTypeEvent        NodeType = "EVENT"
	NodeTypeConsultation NodeType = "CONSULTATION"
	NodeTypeVitalSign    NodeType = "VITAL_SIGN"
	NodeTypeRoom         NodeType = "ROOM"
	NodeTypeReport       NodeType = "REPORT"
)

// Node is a typed record in the patient graph.
// Properties is the schemaless escape hatch: anything not worth a column
// lives there and round-trips through JSON.
type Node struct {
	ID          string
	Type        NodeType
	Name        string
	Description string
	Properties  map[string]any
	CreatedTs   int64
	UpdatedTs   int64
}

// FindNode filters node listing. Nil fields are wildcards.
type FindNode struct {
	ID       *string
	Type     *NodeType
	NameLike *string

	Limit  int
	Offset int
}

// DeleteNode identifies a node to remove.
type DeleteNode struct {
	ID string
}

// UpsertNode creates or replaces a node by ID. The write is idempotent:
// re-upserting the same ID overwrites properties and bumps updated_ts.
func (s *Store) UpsertNode(ctx context.Context, upsert *Node) (*Node, error) {
	node, err := s.driver.UpsertNode(ctx, upsert)
	if err != nil {
		return nil, wrapIO(err, "upsert node")
	}
	s.nodeCache.Set(node.ID, node)
	return node, nil
}

// GetNode loads a node by ID. Returns (nil, nil) when the node does not exist.
func (s *Store) GetNode(ctx context.Context, id string) (*Node, error) {
	if cached, ok := s.nodeCache.Get(id); ok {
		if node, ok := cached.(*Node); ok {
			return node, nil
		}
	}
	node, err := s.driver.GetNode(ctx, id)
	if err != nil {
		return nil, wrapIO(err, "get node")
	}
	if node != nil {
		s.nodeCache.Set(node.ID, node)
	}
	return node, nil
}

// ListNodes lists nodes matching the filter.
func (s *Store) ListNodes(ctx context.Context, find *FindNode) ([]*Node, error) {
	nodes, err := s.driver.ListNodes(ctx, find)
	if err != nil {
		return nil, wrapIO(err, "list nodes")
	}
	return nodes, nil
}

// DeleteNode removes a node and reports whether it existed. Edges referencing
// the node are left in place; readers tolerate the dangling references.
func (s *Store) DeleteNode(ctx context.Context, delete *DeleteNode) (bool, error) {
	existed, err := s.driver.DeleteNode(ctx, delete)
	if err != nil {
		return false, wrapIO(err, "delete node")
	}
	s.nodeCache.Delete(delete.ID)
	return existed, nil
}
