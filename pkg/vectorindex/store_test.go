package vectorindex

import (
	"testing"

	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, dims int) *Store {
	t.Helper()
	store, err := kv.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, dims)
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	s := newTestStore(t, 3)

	a := model.NewNodeID()
	b := model.NewNodeID()
	c := model.NewNodeID()
	require.NoError(t, s.InsertEmbedding(model.Embedding{NodeID: a, Vector: []float32{1, 0, 0}}))
	require.NoError(t, s.InsertEmbedding(model.Embedding{NodeID: b, Vector: []float32{0.8, 0.2, 0}}))
	require.NoError(t, s.InsertEmbedding(model.Embedding{NodeID: c, Vector: []float32{0, 0, 1}}))

	results, err := s.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, a, results[0].NodeID)
	require.InDelta(t, 1.0, results[0].Score, 1e-6)
	require.Equal(t, b, results[1].NodeID)
}

func TestInsertEmbeddingRejectsDimensionMismatch(t *testing.T) {
	s := newTestStore(t, 3)
	err := s.InsertEmbedding(model.Embedding{NodeID: model.NewNodeID(), Vector: []float32{1, 0}})
	require.Error(t, err)
	var dimErr *model.DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	require.Equal(t, 3, dimErr.Expected)
	require.Equal(t, 2, dimErr.Got)
}

func TestDeleteEmbeddingRemovesFromSearch(t *testing.T) {
	s := newTestStore(t, 2)
	id := model.NewNodeID()
	require.NoError(t, s.InsertEmbedding(model.Embedding{NodeID: id, Vector: []float32{1, 0}}))
	require.NoError(t, s.DeleteEmbedding(id))

	results, err := s.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchTiesBreakByInsertionOrder(t *testing.T) {
	s := newTestStore(t, 2)
	first := model.NewNodeID()
	second := model.NewNodeID()
	require.NoError(t, s.InsertEmbedding(model.Embedding{NodeID: first, Vector: []float32{1, 0}}))
	require.NoError(t, s.InsertEmbedding(model.Embedding{NodeID: second, Vector: []float32{1, 0}}))

	results, err := s.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Equal(t, first, results[0].NodeID)
	require.Equal(t, second, results[1].NodeID)
}
