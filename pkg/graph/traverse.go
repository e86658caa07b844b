package graph

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/mnemograph/mnemograph/pkg/model"
)

// frontierEntry is one node awaiting expansion during a breadth-first walk,
// paired with the depth it was reached at.
type frontierEntry struct {
	id    model.NodeID
	depth int
}

// Traverse performs a breadth-first walk outward from root, following
// outgoing edges only, bounded by maxDepth (root is depth 0). When
// edgeTypes is non-empty, only edges whose Type is in the set are followed.
// Returns the nodes reached, in the order they were first visited.
func (s *Store) Traverse(root model.NodeID, edgeTypes []model.EdgeType, maxDepth int) ([]*model.Node, error) {
	allow := edgeTypeSet(edgeTypes)
	var visited []*model.Node
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		seen := map[model.NodeID]bool{root: true}
		queue := []frontierEntry{{root, 0}}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]

			node, err := GetNodeTx(txn, cur.id)
			if err != nil {
				return err
			}
			visited = append(visited, node)

			if cur.depth >= maxDepth {
				continue
			}
			edges, err := OutgoingEdgesTx(txn, cur.id)
			if err != nil {
				return err
			}
			for _, e := range edges {
				if allow != nil && !allow[e.Type] {
					continue
				}
				if seen[e.ToNode] {
					continue
				}
				seen[e.ToNode] = true
				queue = append(queue, frontierEntry{e.ToNode, cur.depth + 1})
			}
		}
		return nil
	})
	return visited, err
}

func edgeTypeSet(types []model.EdgeType) map[model.EdgeType]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[model.EdgeType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// Path is an ordered sequence of edges from a FindPaths start node to its
// end node.
type Path struct {
	Nodes []model.NodeID
	Edges []model.EdgeID
}

// FindPaths enumerates every simple path from `from` to `to` of at most
// maxDepth edges, via depth-first search. Visited tracking is per-path: a
// node may reappear on a different branch of the search, it just cannot
// repeat within a single path (a cycle would make that path infinite).
func (s *Store) FindPaths(from, to model.NodeID, maxDepth int) ([]Path, error) {
	var paths []Path
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		visited := map[model.NodeID]bool{from: true}
		return dfsPaths(txn, from, to, maxDepth, visited, nil, nil, &paths)
	})
	return paths, err
}

func dfsPaths(
	txn *badger.Txn,
	cur, target model.NodeID,
	remaining int,
	visited map[model.NodeID]bool,
	nodeTrail []model.NodeID,
	edgeTrail []model.EdgeID,
	out *[]Path,
) error {
	nodeTrail = append(nodeTrail, cur)
	if cur == target && len(nodeTrail) > 1 {
		*out = append(*out, Path{
			Nodes: append([]model.NodeID(nil), nodeTrail...),
			Edges: append([]model.EdgeID(nil), edgeTrail...),
		})
	}
	if remaining == 0 {
		return nil
	}

	edges, err := OutgoingEdgesTx(txn, cur)
	if err != nil {
		return err
	}
	for _, e := range edges {
		if visited[e.ToNode] {
			continue
		}
		visited[e.ToNode] = true
		err := dfsPaths(txn, e.ToNode, target, remaining-1, visited,
			nodeTrail, append(edgeTrail, e.ID), out)
		delete(visited, e.ToNode)
		if err != nil {
			return err
		}
	}
	return nil
}

// Subgraph projects Traverse's reachable set into a node-id/edge-id
// membership view, suitable for extracting an induced subgraph.
type Subgraph struct {
	NodeIDs map[model.NodeID]bool
	EdgeIDs map[model.EdgeID]bool
}

// Subgraph walks outward from root (no edge-type filter) up to maxDepth and
// returns the set of nodes reached and the edges connecting them.
func (s *Store) Subgraph(root model.NodeID, maxDepth int) (*Subgraph, error) {
	nodes, err := s.Traverse(root, nil, maxDepth)
	if err != nil {
		return nil, err
	}
	sub := &Subgraph{NodeIDs: make(map[model.NodeID]bool, len(nodes)), EdgeIDs: make(map[model.EdgeID]bool)}
	for _, n := range nodes {
		sub.NodeIDs[n.ID] = true
	}
	err = s.kv.DB.View(func(txn *badger.Txn) error {
		for id := range sub.NodeIDs {
			edges, err := OutgoingEdgesTx(txn, id)
			if err != nil {
				return err
			}
			for _, e := range edges {
				if sub.NodeIDs[e.ToNode] {
					sub.EdgeIDs[e.ID] = true
				}
			}
		}
		return nil
	})
	return sub, err
}
