package ingest

import (
	"testing"
	"time"

	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/mnemograph/mnemograph/pkg/txn"
	"github.com/stretchr/testify/require"
)

func TestNodeProducerOneOpPerSource(t *testing.T) {
	sources := []Source{
		{Name: "a", Type: model.NodeFunction, Content: "func a() { b() }"},
		{Name: "b", Type: model.NodeFunction, Content: "func b() {}"},
	}
	ops, err := NodeProducer{}.Produce(sources, time.Now())
	require.NoError(t, err)
	require.Len(t, ops, 2)
	for _, op := range ops {
		require.Equal(t, txn.OpInsertNode, op.Kind)
	}
}

func TestNameContainmentProducerInfersCallsEdge(t *testing.T) {
	sources := []Source{
		{Name: "a", Type: model.NodeFunction, Content: "func a() { b() }"},
		{Name: "b", Type: model.NodeFunction, Content: "func b() {}"},
	}
	ops, err := NameContainmentProducer{}.Produce(sources, time.Now())
	require.NoError(t, err)

	var edgeOps int
	for _, op := range ops {
		if op.Kind == txn.OpInsertEdge {
			edgeOps++
			require.Equal(t, model.EdgeCalls, op.Edge.Type)
		}
	}
	require.Equal(t, 1, edgeOps) // only a's content contains "b"; b's content does not contain "a"
}

func TestTermFrequencyEmbeddingIsNormalizedAndDeterministic(t *testing.T) {
	v1 := TermFrequencyEmbedding("the quick brown fox", 16)
	v2 := TermFrequencyEmbedding("the quick brown fox", 16)
	require.Equal(t, v1, v2)

	var sumSquares float64
	for _, x := range v1 {
		sumSquares += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, sumSquares, 1e-6)
}

func TestTermFrequencyEmbeddingZeroDimension(t *testing.T) {
	require.Nil(t, TermFrequencyEmbedding("anything", 0))
}
