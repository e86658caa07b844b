// Package txn implements the transaction manager: the cross-store atomic
// commit protocol that lets a caller stage node, edge, embedding, and
// version mutations together and either have all of them take effect or
// none of them. Grounded on the original implementation's
// TransactionManager (a buffered pending-ops list flushed by a single
// commit), adapted here to stage directly into one Badger transaction so
// Badger's own write-ahead log provides the crash-atomicity boundary —
// no separate undo log is needed above it.
package txn

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/mnemograph/mnemograph/pkg/graph"
	"github.com/mnemograph/mnemograph/pkg/history"
	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/mnemograph/mnemograph/pkg/vectorindex"
)

// OpKind discriminates the variant of a staged Operation.
type OpKind string

const (
	OpInsertNode      OpKind = "InsertNode"
	OpRemoveNode      OpKind = "RemoveNode"
	OpInsertEdge      OpKind = "InsertEdge"
	OpRemoveEdge      OpKind = "RemoveEdge"
	OpInsertEmbedding OpKind = "InsertEmbedding"
	OpDeleteEmbedding OpKind = "DeleteEmbedding"
	OpRecordVersion   OpKind = "RecordVersion"
)

// Operation is one staged mutation. Only the fields relevant to Kind are
// populated.
type Operation struct {
	Kind          OpKind
	Node          *model.Node
	RemoveNodeID  model.NodeID
	Edge          *model.Edge
	RemoveEdgeID  model.EdgeID
	Embedding     model.Embedding
	DeleteEmbNode model.NodeID
	Version       *model.VersionEntry
}

// opPriority fixes the application order within a Commit: nodes first (so
// later edge/embedding ops can reference them), then embeddings, then
// edges, then version entries last.
func opPriority(k OpKind) int {
	switch k {
	case OpInsertNode, OpRemoveNode:
		return 0
	case OpInsertEmbedding, OpDeleteEmbedding:
		return 1
	case OpInsertEdge, OpRemoveEdge:
		return 2
	case OpRecordVersion:
		return 3
	default:
		return 4
	}
}

// Manager coordinates the graph, vector, and history stores so that a group
// of mutations spanning all three commits atomically.
type Manager struct {
	kv      *kv.Store
	vector  *vectorindex.Store
	pending []Operation
	inTxn   bool
}

// New builds a Manager over the shared kv store. vector is needed alongside
// kv because embedding inserts must run through the vector store's
// dimension bookkeeping (Store.Dimensions), not a bare KV write.
func New(store *kv.Store, vector *vectorindex.Store) *Manager {
	return &Manager{kv: store, vector: vector}
}

// Begin starts a new transaction. Fails if one is already in progress.
func (m *Manager) Begin() error {
	if m.inTxn {
		return model.ErrInTxn
	}
	m.inTxn = true
	m.pending = nil
	return nil
}

// AddOp stages a single operation. Must be called between Begin and Commit.
func (m *Manager) AddOp(op Operation) error {
	if !m.inTxn {
		return model.ErrNotInTxn
	}
	m.pending = append(m.pending, op)
	return nil
}

func (m *Manager) InsertNode(n *model.Node) error {
	return m.AddOp(Operation{Kind: OpInsertNode, Node: n})
}

func (m *Manager) RemoveNode(id model.NodeID) error {
	return m.AddOp(Operation{Kind: OpRemoveNode, RemoveNodeID: id})
}

func (m *Manager) InsertEdge(e *model.Edge) error {
	return m.AddOp(Operation{Kind: OpInsertEdge, Edge: e})
}

func (m *Manager) RemoveEdge(id model.EdgeID) error {
	return m.AddOp(Operation{Kind: OpRemoveEdge, RemoveEdgeID: id})
}

func (m *Manager) InsertEmbedding(e model.Embedding) error {
	return m.AddOp(Operation{Kind: OpInsertEmbedding, Embedding: e})
}

func (m *Manager) DeleteEmbedding(id model.NodeID) error {
	return m.AddOp(Operation{Kind: OpDeleteEmbedding, DeleteEmbNode: id})
}

func (m *Manager) RecordVersion(v *model.VersionEntry) error {
	return m.AddOp(Operation{Kind: OpRecordVersion, Version: v})
}

// Rollback discards all pending operations without touching the KV store —
// nothing was written to Badger until Commit, so there is nothing to undo
// there.
func (m *Manager) Rollback() error {
	if !m.inTxn {
		return model.ErrNotInTxn
	}
	m.inTxn = false
	m.pending = nil
	return nil
}

// Commit validates and applies every pending operation as a single Badger
// transaction, in nodes -> embeddings -> edges -> version-entries order. If
// any operation fails validation (a missing edge endpoint, a dimension
// mismatch, a dangling version parent, a duplicate node or edge id), the whole
// transaction is discarded and no partial state is visible.
func (m *Manager) Commit() error {
	if !m.inTxn {
		return model.ErrNotInTxn
	}
	ops := make([]Operation, len(m.pending))
	copy(ops, m.pending)
	m.inTxn = false
	m.pending = nil

	stableSortByPriority(ops)

	txn := m.kv.DB.NewTransaction(true)
	defer txn.Discard()

	for _, op := range ops {
		if err := m.apply(txn, op); err != nil {
			return fmt.Errorf("txn: commit failed on %s: %w", op.Kind, err)
		}
	}
	return txn.Commit()
}

// ExecuteBatch runs ops as a single atomic transaction: Begin, stage every
// op, Commit. On any staging or validation error, rolls back and returns
// the error.
func (m *Manager) ExecuteBatch(ops []Operation) error {
	if err := m.Begin(); err != nil {
		return err
	}
	for _, op := range ops {
		if err := m.AddOp(op); err != nil {
			_ = m.Rollback()
			return err
		}
	}
	return m.Commit()
}

func (m *Manager) apply(txn *badger.Txn, op Operation) error {
	switch op.Kind {
	case OpInsertNode:
		return graph.InsertNodeTx(txn, op.Node)
	case OpRemoveNode:
		return graph.RemoveNodeTx(txn, op.RemoveNodeID)
	case OpInsertEdge:
		return graph.InsertEdgeTx(txn, op.Edge)
	case OpRemoveEdge:
		return graph.RemoveEdgeTx(txn, op.RemoveEdgeID)
	case OpInsertEmbedding:
		return m.vector.InsertEmbeddingTx(txn, op.Embedding)
	case OpDeleteEmbedding:
		return m.vector.DeleteEmbeddingTx(txn, op.DeleteEmbNode)
	case OpRecordVersion:
		return history.RecordVersionTx(txn, op.Version)
	default:
		return fmt.Errorf("txn: unknown operation kind %q", op.Kind)
	}
}

// stableSortByPriority reorders ops by opPriority while preserving relative
// order within each priority bucket (insertion-sort is plenty for the
// handful of ops a single transaction typically carries).
func stableSortByPriority(ops []Operation) {
	for i := 1; i < len(ops); i++ {
		j := i
		for j > 0 && opPriority(ops[j-1].Kind) > opPriority(ops[j].Kind) {
			ops[j-1], ops[j] = ops[j], ops[j-1]
			j--
		}
	}
}

// Stats reports the current size of every store, mirroring the original
// implementation's StoreStats accessor.
type Stats struct {
	NodeCount      int64
	EdgeCount      int64
	EmbeddingCount int64
	VersionCount   int64
}

// String renders Stats the way the original StoreStats' Display impl did.
func (s Stats) String() string {
	return fmt.Sprintf("nodes=%d edges=%d embeddings=%d versions=%d", s.NodeCount, s.EdgeCount, s.EmbeddingCount, s.VersionCount)
}

// Stats scans every namespace and reports current counts. Intended for
// CLI/diagnostic use, not the hot path.
func (m *Manager) Stats(g *graph.Store) (Stats, error) {
	var s Stats
	var err error
	s.NodeCount, err = g.NodeCount()
	if err != nil {
		return s, err
	}
	s.EdgeCount, err = g.EdgeCount()
	if err != nil {
		return s, err
	}

	err = m.kv.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()
		embPrefix := []byte{kv.PrefixEmbedding}
		for it.Seek(embPrefix); it.ValidForPrefix(embPrefix); it.Next() {
			if len(it.Item().Key()) == 17 { // skip the reserved sequence-counter key
				s.EmbeddingCount++
			}
		}

		verPrefix := []byte{kv.PrefixVersion}
		for it.Seek(verPrefix); it.ValidForPrefix(verPrefix); it.Next() {
			s.VersionCount++
		}
		return nil
	})
	return s, err
}
