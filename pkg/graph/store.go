// Package graph implements the knowledge-graph component: typed nodes and
// directed, typed, temporally-scoped edges persisted in Badger, plus the
// traversal operations (BFS reachability, DFS path enumeration, subgraph
// projection, temporal edge queries) the query engine and impact analysis
// build on.
package graph

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
)

// Store is the graph component, backed by a shared kv.Store. The node/edge
// insert, get, and remove methods and the adjacency reads are wrappers over
// Tx-suffixed functions operating directly on a *badger.Txn, so the
// transaction manager (pkg/txn) can stage graph mutations into the same
// Badger transaction as vector and history writes. The type scans, temporal
// query, counts, and traversals open their own read transaction only.
type Store struct {
	kv *kv.Store
}

// New wraps an already-open kv.Store as a graph Store.
func New(store *kv.Store) *Store {
	return &Store{kv: store}
}

// InsertNodeTx stages a node write (and its type index entry) into txn.
// Fails with DuplicateNodeError if a node already exists at n.ID — add_node
// is create-only. There is no update operation; replacing a node means a
// remove (which cascades to its edges) followed by an insert.
func InsertNodeTx(txn *badger.Txn, n *model.Node) error {
	if _, err := GetNodeTx(txn, n.ID); err == nil {
		return &model.DuplicateNodeError{ID: n.ID}
	} else if err != model.ErrNotFound {
		return err
	}

	data, err := encodeNode(n)
	if err != nil {
		return fmt.Errorf("graph: encode node: %w", err)
	}
	if err := txn.Set(nodeKey(n.ID), data); err != nil {
		return err
	}
	return txn.Set(nodeTypeIndexKey(n.Type, n.ID), []byte{})
}

// GetNodeTx reads a node inside an existing transaction.
func GetNodeTx(txn *badger.Txn, id model.NodeID) (*model.Node, error) {
	item, err := txn.Get(nodeKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var node *model.Node
	err = item.Value(func(val []byte) error {
		var decErr error
		node, decErr = decodeNode(val)
		return decErr
	})
	return node, err
}

// RemoveNodeTx removes a node, its type-index entry, and every edge
// touching it (cascading delete, matching BadgerEngine.DeleteNode).
func RemoveNodeTx(txn *badger.Txn, id model.NodeID) error {
	node, err := GetNodeTx(txn, id)
	if err != nil {
		return err
	}
	if err := txn.Delete(nodeTypeIndexKey(node.Type, id)); err != nil {
		return err
	}
	if err := deleteAdjacentEdges(txn, id); err != nil {
		return err
	}
	return txn.Delete(nodeKey(id))
}

func deleteAdjacentEdges(txn *badger.Txn, id model.NodeID) error {
	for _, prefix := range [][]byte{outAdjPrefix(id), inAdjPrefix(id)} {
		var edgeIDs []model.EdgeID
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := lastIDFromFixedSuffix(it.Item().KeyCopy(nil))
			eid, err := model.EdgeIDFromBytes(raw)
			if err != nil {
				it.Close()
				return err
			}
			edgeIDs = append(edgeIDs, eid)
		}
		it.Close()
		for _, eid := range edgeIDs {
			if err := RemoveEdgeTx(txn, eid); err != nil && err != model.ErrNotFound {
				return err
			}
		}
	}
	return nil
}

// InsertEdgeTx validates both endpoints exist (I1), rejects a duplicate id,
// clamps Confidence to [0,1], then stages the edge and its adjacency/
// type-index entries.
func InsertEdgeTx(txn *badger.Txn, e *model.Edge) error {
	if _, err := GetNodeTx(txn, e.FromNode); err != nil {
		return &model.ConstraintViolationError{Constraint: "I1", Detail: "edge from_node does not exist: " + e.FromNode.String()}
	}
	if _, err := GetNodeTx(txn, e.ToNode); err != nil {
		return &model.ConstraintViolationError{Constraint: "I1", Detail: "edge to_node does not exist: " + e.ToNode.String()}
	}
	if _, err := GetEdgeTx(txn, e.ID); err == nil {
		return &model.DuplicateEdgeError{ID: e.ID}
	} else if err != model.ErrNotFound {
		return err
	}
	e.ClampConfidence()

	data, err := encodeEdge(e)
	if err != nil {
		return fmt.Errorf("graph: encode edge: %w", err)
	}
	if err := txn.Set(edgeKey(e.ID), data); err != nil {
		return err
	}
	if err := txn.Set(outAdjKey(e.FromNode, e.ID), []byte{}); err != nil {
		return err
	}
	if err := txn.Set(inAdjKey(e.ToNode, e.ID), []byte{}); err != nil {
		return err
	}
	return txn.Set(edgeTypeIndexKey(e.Type, e.ID), []byte{})
}

// GetEdgeTx reads an edge inside an existing transaction.
func GetEdgeTx(txn *badger.Txn, id model.EdgeID) (*model.Edge, error) {
	item, err := txn.Get(edgeKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var edge *model.Edge
	err = item.Value(func(val []byte) error {
		var decErr error
		edge, decErr = decodeEdge(val)
		return decErr
	})
	return edge, err
}

// RemoveEdgeTx removes an edge and its adjacency/type-index entries.
func RemoveEdgeTx(txn *badger.Txn, id model.EdgeID) error {
	edge, err := GetEdgeTx(txn, id)
	if err != nil {
		return err
	}
	if err := txn.Delete(outAdjKey(edge.FromNode, id)); err != nil {
		return err
	}
	if err := txn.Delete(inAdjKey(edge.ToNode, id)); err != nil {
		return err
	}
	if err := txn.Delete(edgeTypeIndexKey(edge.Type, id)); err != nil {
		return err
	}
	return txn.Delete(edgeKey(id))
}

// OutgoingEdgesTx returns every edge whose FromNode is id.
func OutgoingEdgesTx(txn *badger.Txn, id model.NodeID) ([]*model.Edge, error) {
	return scanAdjacency(txn, outAdjPrefix(id))
}

// IncomingEdgesTx returns every edge whose ToNode is id.
func IncomingEdgesTx(txn *badger.Txn, id model.NodeID) ([]*model.Edge, error) {
	return scanAdjacency(txn, inAdjPrefix(id))
}

func scanAdjacency(txn *badger.Txn, prefix []byte) ([]*model.Edge, error) {
	var edges []*model.Edge
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		raw := lastIDFromFixedSuffix(it.Item().KeyCopy(nil))
		eid, err := model.EdgeIDFromBytes(raw)
		if err != nil {
			return nil, err
		}
		edge, err := GetEdgeTx(txn, eid)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// ---- Store-level convenience wrappers (open their own transaction) ----

func (s *Store) CreateNode(n *model.Node) error {
	return s.kv.DB.Update(func(txn *badger.Txn) error { return InsertNodeTx(txn, n) })
}

func (s *Store) GetNode(id model.NodeID) (*model.Node, error) {
	var node *model.Node
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		n, err := GetNodeTx(txn, id)
		node = n
		return err
	})
	return node, err
}

func (s *Store) DeleteNode(id model.NodeID) error {
	return s.kv.DB.Update(func(txn *badger.Txn) error { return RemoveNodeTx(txn, id) })
}

func (s *Store) CreateEdge(e *model.Edge) error {
	return s.kv.DB.Update(func(txn *badger.Txn) error { return InsertEdgeTx(txn, e) })
}

func (s *Store) GetEdge(id model.EdgeID) (*model.Edge, error) {
	var edge *model.Edge
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		e, err := GetEdgeTx(txn, id)
		edge = e
		return err
	})
	return edge, err
}

func (s *Store) DeleteEdge(id model.EdgeID) error {
	return s.kv.DB.Update(func(txn *badger.Txn) error { return RemoveEdgeTx(txn, id) })
}

func (s *Store) OutgoingEdges(id model.NodeID) ([]*model.Edge, error) {
	var edges []*model.Edge
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		e, err := OutgoingEdgesTx(txn, id)
		edges = e
		return err
	})
	return edges, err
}

func (s *Store) IncomingEdges(id model.NodeID) ([]*model.Edge, error) {
	var edges []*model.Edge
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		e, err := IncomingEdgesTx(txn, id)
		edges = e
		return err
	})
	return edges, err
}

// NodesByType scans the node-type index and returns every node with type t.
func (s *Store) NodesByType(t model.NodeType) ([]*model.Node, error) {
	var nodes []*model.Node
	prefix := nodeTypeIndexPrefix(t)
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := lastIDFromFixedSuffix(it.Item().KeyCopy(nil))
			id, err := model.NodeIDFromBytes(raw)
			if err != nil {
				return err
			}
			node, err := GetNodeTx(txn, id)
			if err != nil {
				return err
			}
			nodes = append(nodes, node)
		}
		return nil
	})
	return nodes, err
}

// EdgesByType scans the edge-type index and returns every edge with type t.
func (s *Store) EdgesByType(t model.EdgeType) ([]*model.Edge, error) {
	var edges []*model.Edge
	prefix := edgeTypeIndexPrefix(t)
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := lastIDFromFixedSuffix(it.Item().KeyCopy(nil))
			id, err := model.EdgeIDFromBytes(raw)
			if err != nil {
				return err
			}
			edge, err := GetEdgeTx(txn, id)
			if err != nil {
				return err
			}
			edges = append(edges, edge)
		}
		return nil
	})
	return edges, err
}

// EdgesAtTime returns every edge touching node id (in either direction)
// whose temporal range contains timestamp — the containment check is
// since_ts <= timestamp <= until_ts, or since_ts <= timestamp when the edge
// has no until_ts (still valid).
func (s *Store) EdgesAtTime(id model.NodeID, timestamp time.Time) ([]*model.Edge, error) {
	var result []*model.Edge
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		for _, prefix := range [][]byte{outAdjPrefix(id), inAdjPrefix(id)} {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				raw := lastIDFromFixedSuffix(it.Item().KeyCopy(nil))
				eid, err := model.EdgeIDFromBytes(raw)
				if err != nil {
					it.Close()
					return err
				}
				edge, err := GetEdgeTx(txn, eid)
				if err != nil {
					it.Close()
					return err
				}
				if edge.Temporal.IsValidAt(timestamp) {
					result = append(result, edge)
				}
			}
			it.Close()
		}
		return nil
	})
	return result, err
}

// NodeCount returns the number of nodes in the graph.
func (s *Store) NodeCount() (int64, error) {
	var count int64
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte{kv.PrefixNode}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// EdgeCount returns the number of edges in the graph.
func (s *Store) EdgeCount() (int64, error) {
	var count int64
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte{kv.PrefixEdge}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
