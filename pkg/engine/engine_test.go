package engine

import (
	"testing"
	"time"

	"github.com/mnemograph/mnemograph/pkg/config"
	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestOpenAndCloseInMemory(t *testing.T) {
	e, err := Open(&config.Config{InMemory: true, EmbeddingDimension: 3})
	require.NoError(t, err)
	defer e.Close()

	now := time.Now()
	n := &model.Node{ID: model.NewNodeID(), Type: model.NodeFunction, Name: "a", Content: "a", CreatedAt: now, UpdatedAt: now}
	n.Touch(now)
	require.NoError(t, e.Graph.CreateNode(n))

	report, err := e.ValidateIntegrity()
	require.NoError(t, err)
	require.True(t, report.OK())

	stats, err := e.Stats()
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.NodeCount)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open(&config.Config{})
	require.Error(t, err)
}
