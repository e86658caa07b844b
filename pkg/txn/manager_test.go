package txn

import (
	"testing"
	"time"

	"github.com/mnemograph/mnemograph/pkg/graph"
	"github.com/mnemograph/mnemograph/pkg/history"
	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/mnemograph/mnemograph/pkg/vectorindex"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store   *kv.Store
	graph   *graph.Store
	vector  *vectorindex.Store
	history *history.Store
	txn     *Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := kv.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	vec := vectorindex.New(store, 3)
	return &harness{
		store:   store,
		graph:   graph.New(store),
		vector:  vec,
		history: history.New(store),
		txn:     New(store, vec),
	}
}

func TestCommitAppliesAllOpsAtomically(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	a := &model.Node{ID: model.NewNodeID(), Type: model.NodeFunction, Name: "a", Content: "a", ContentHash: model.ContentHashOf("a"), CreatedAt: now, UpdatedAt: now}
	b := &model.Node{ID: model.NewNodeID(), Type: model.NodeFunction, Name: "b", Content: "b", ContentHash: model.ContentHashOf("b"), CreatedAt: now, UpdatedAt: now}
	edge := &model.Edge{ID: model.NewEdgeID(), Type: model.EdgeCalls, FromNode: a.ID, ToNode: b.ID, Temporal: model.TemporalRange{SinceTS: now}}
	version := &model.VersionEntry{VersionID: "v1", EntityID: a.ID, Branch: "main", Diff: model.Diff{Kind: model.DiffInitial, Content: "a"}, Timestamp: now}

	require.NoError(t, h.txn.Begin())
	require.NoError(t, h.txn.InsertNode(a))
	require.NoError(t, h.txn.InsertNode(b))
	require.NoError(t, h.txn.InsertEdge(edge))
	require.NoError(t, h.txn.InsertEmbedding(model.Embedding{NodeID: a.ID, Vector: []float32{1, 0, 0}}))
	require.NoError(t, h.txn.RecordVersion(version))
	require.NoError(t, h.txn.Commit())

	_, err := h.graph.GetNode(a.ID)
	require.NoError(t, err)
	_, err = h.graph.GetEdge(edge.ID)
	require.NoError(t, err)
	results, err := h.vector.Search([]float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	_, err = h.history.GetVersion("v1")
	require.NoError(t, err)
}

func TestCommitIsAtomicOnValidationFailure(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	a := &model.Node{ID: model.NewNodeID(), Type: model.NodeFunction, Name: "a", Content: "a", ContentHash: model.ContentHashOf("a"), CreatedAt: now, UpdatedAt: now}
	badEdge := &model.Edge{ID: model.NewEdgeID(), Type: model.EdgeCalls, FromNode: a.ID, ToNode: model.NewNodeID(), Temporal: model.TemporalRange{SinceTS: now}}

	require.NoError(t, h.txn.Begin())
	require.NoError(t, h.txn.InsertNode(a))
	require.NoError(t, h.txn.InsertEdge(badEdge)) // references a node that's never inserted
	err := h.txn.Commit()
	require.Error(t, err)

	// Node insert must not have survived either — the whole commit rolled back.
	_, err = h.graph.GetNode(a.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestOpsApplyInFixedOrderRegardlessOfStagingOrder(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	a := &model.Node{ID: model.NewNodeID(), Type: model.NodeFunction, Name: "a", Content: "a", ContentHash: model.ContentHashOf("a"), CreatedAt: now, UpdatedAt: now}
	b := &model.Node{ID: model.NewNodeID(), Type: model.NodeFunction, Name: "b", Content: "b", ContentHash: model.ContentHashOf("b"), CreatedAt: now, UpdatedAt: now}
	edge := &model.Edge{ID: model.NewEdgeID(), Type: model.EdgeCalls, FromNode: a.ID, ToNode: b.ID, Temporal: model.TemporalRange{SinceTS: now}}

	require.NoError(t, h.txn.Begin())
	// Stage the edge before either endpoint node — Commit must still
	// succeed because nodes are applied first regardless of staging order.
	require.NoError(t, h.txn.InsertEdge(edge))
	require.NoError(t, h.txn.InsertNode(a))
	require.NoError(t, h.txn.InsertNode(b))
	require.NoError(t, h.txn.Commit())

	_, err := h.graph.GetEdge(edge.ID)
	require.NoError(t, err)
}

func TestStatsReflectsCommittedState(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	a := &model.Node{ID: model.NewNodeID(), Type: model.NodeFunction, Name: "a", Content: "a", ContentHash: model.ContentHashOf("a"), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, h.txn.ExecuteBatch([]Operation{{Kind: OpInsertNode, Node: a}}))

	stats, err := h.txn.Stats(h.graph)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.NodeCount)
}
