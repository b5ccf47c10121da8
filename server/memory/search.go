package memory

import (
	"context"

	"github.com/sentinelcare/sentinel/store"
)

// Search finds nodes whose name matches the keyword, optionally restricted
// to one node type.
func (s *Service) Search(ctx context.Context, keyword string, nodeType *store.NodeType, limit int) ([]*store.Node, error) {
	find := &store.FindNode{Type: nodeType, Limit: limit}
	if keyword != "" {
		find.NameLike = &keyword
	}
	return s.store.ListNodes(ctx, find)
}

// RelatedNodes walks the graph breadth-first from a node, up to depth hops,
// following edges in both directions. The origin node is not included.
// Dangling edges are skipped.
func (s *Service) RelatedNodes(ctx context.Context, originID string, depth int) ([]*store.Node, error) {
	if depth <= 0 {
		depth = 1
	}

	visited := map[string]bool{originID: true}
	frontier := []string{originID}
	related := []*store.Node{}

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		next := []string{}
		for _, id := range frontier {
			neighborIDs, err := s.neighborIDs(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, neighborID := range neighborIDs {
				if visited[neighborID] {
					continue
				}
				visited[neighborID] = true
				node, err := s.store.GetNode(ctx, neighborID)
				if err != nil {
					return nil, err
				}
				if node == nil {
					continue
				}
				related = append(related, node)
				next = append(next, neighborID)
			}
		}
		frontier = next
	}
	return related, nil
}

// GraphStats reports node and edge counts for operational visibility.
func (s *Service) GraphStats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *Service) neighborIDs(ctx context.Context, id string) ([]string, error) {
	ids := []string{}

	outgoing, err := s.store.ListEdges(ctx, &store.FindEdge{Source: &id})
	if err != nil {
		return nil, err
	}
	for _, edge := range outgoing {
		ids = append(ids, edge.Target)
	}

	incoming, err := s.store.ListEdges(ctx, &store.FindEdge{Target: &id})
	if err != nil {
		return nil, err
	}
	for _, edge := range incoming {
		ids = append(ids, edge.Source)
	}
	return ids, nil
}
