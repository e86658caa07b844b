package query

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

// buildTestStores wires up funcA -Calls-> funcB -Calls-> funcC, with testB
// -TestsOf-> funcB, and embeddings that make funcA the closest vector match
// to the query [1,0,0].
func buildTestStores(t *testing.T) (*Engine, map[string]model.NodeID) {
	t.Helper()
	store, err := kv.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	g := graph.New(store)
	v := vectorindex.New(store, 3)
	h := history.New(store)

	ids := map[string]model.NodeID{
		"funcA": model.NewNodeID(),
		"funcB": model.NewNodeID(),
		"funcC": model.NewNodeID(),
		"testB": model.NewNodeID(),
	}
	now := time.Now()
	for name, id := range ids {
		n := &model.Node{ID: id, Type: model.NodeFunction, Name: name, Content: name, CreatedAt: now, UpdatedAt: now}
		n.Touch(now)
		require.NoError(t, g.CreateNode(n))
	}

	mustEdge := func(typ model.EdgeType, from, to model.NodeID) {
		require.NoError(t, g.CreateEdge(&model.Edge{ID: model.NewEdgeID(), Type: typ, FromNode: from, ToNode: to, Temporal: model.TemporalRange{SinceTS: now}}))
	}
	mustEdge(model.EdgeCalls, ids["funcA"], ids["funcB"])
	mustEdge(model.EdgeCalls, ids["funcB"], ids["funcC"])
	mustEdge(model.EdgeTestsOf, ids["testB"], ids["funcB"])

	require.NoError(t, v.InsertEmbedding(model.Embedding{NodeID: ids["funcA"], Vector: []float32{1, 0, 0}}))
	require.NoError(t, v.InsertEmbedding(model.Embedding{NodeID: ids["funcB"], Vector: []float32{0.8, 0.2, 0}}))
	require.NoError(t, v.InsertEmbedding(model.Embedding{NodeID: ids["funcC"], Vector: []float32{0, 0, 1}}))

	return New(g, v, h), ids
}

func TestExecuteVectorSearchOnly(t *testing.T) {
	e, ids := buildTestStores(t)
	result, err := e.Execute([]float32{1, 0, 0}, Options{TopK: 1, MaxDepth: 0})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, ids["funcA"], result.Items[0].NodeID)
	require.Equal(t, SourceVector, result.Items[0].Source)
}

func TestExecuteGraphExpandedQuery(t *testing.T) {
	e, ids := buildTestStores(t)
	result, err := e.Execute([]float32{1, 0, 0}, Options{TopK: 1, MaxDepth: 2})
	require.NoError(t, err)

	byID := map[model.NodeID]ResultItem{}
	for _, item := range result.Items {
		byID[item.NodeID] = item
	}
	require.Contains(t, byID, ids["funcB"])
	require.Equal(t, SourceGraph, byID[ids["funcB"]].Source)
	require.Equal(t, 0.5, byID[ids["funcB"]].Score) // depth 1: 1/(1+1)
	require.Contains(t, byID, ids["funcC"])
	require.Equal(t, 1.0/3.0, byID[ids["funcC"]].Score) // depth 2: 1/(1+2)
	require.Greater(t, byID[ids["funcB"]].Score, byID[ids["funcC"]].Score)
}

func TestImpactAnalysisSkipsSelfAndRespectsDepth(t *testing.T) {
	e, ids := buildTestStores(t)
	impacted, err := e.ImpactAnalysis(ids["funcC"], 2)
	require.NoError(t, err)

	var found []model.NodeID
	for _, i := range impacted {
		found = append(found, i.NodeID)
	}
	require.Contains(t, found, ids["funcB"])
	require.Contains(t, found, ids["funcA"])
	require.NotContains(t, found, ids["funcC"])
}

func TestFindCoveringTestsDirectAndTransitive(t *testing.T) {
	e, ids := buildTestStores(t)

	direct, err := e.FindCoveringTests(ids["funcB"], 1)
	require.NoError(t, err)
	require.Len(t, direct, 1)
	require.Equal(t, ids["testB"], direct[0].NodeID)
	require.Equal(t, 1.0, direct[0].Score)

	// funcC has no direct TestsOf edge, and maxDepth=1 disables the
	// transitive Calls->TestsOf search, so nothing surfaces.
	noTransitive, err := e.FindCoveringTests(ids["funcC"], 1)
	require.NoError(t, err)
	require.Empty(t, noTransitive)

	// funcC's only caller is funcB, which testB covers directly — at
	// maxDepth=2 that reaches funcC transitively at score 0.7, depth 2.
	transitive, err := e.FindCoveringTests(ids["funcC"], 2)
	require.NoError(t, err)
	require.Len(t, transitive, 1)
	require.Equal(t, ids["testB"], transitive[0].NodeID)
	require.Equal(t, 0.7, transitive[0].Score)
	require.Equal(t, 2, transitive[0].Depth)
}
