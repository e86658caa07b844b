package graph

import (
	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
)

func nodeKey(id model.NodeID) []byte {
	return append([]byte{kv.PrefixNode}, id.Bytes()...)
}

func edgeKey(id model.EdgeID) []byte {
	return append([]byte{kv.PrefixEdge}, id.Bytes()...)
}

// outAdjKey indexes an outgoing edge under its source node: out_adj:from:edge.
// Both components are fixed-width 16-byte UUIDs, so no separator is needed.
func outAdjKey(from model.NodeID, edge model.EdgeID) []byte {
	key := make([]byte, 0, 1+16+16)
	key = append(key, kv.PrefixOutAdj)
	key = append(key, from.Bytes()...)
	key = append(key, edge.Bytes()...)
	return key
}

func outAdjPrefix(from model.NodeID) []byte {
	return append([]byte{kv.PrefixOutAdj}, from.Bytes()...)
}

func inAdjKey(to model.NodeID, edge model.EdgeID) []byte {
	key := make([]byte, 0, 1+16+16)
	key = append(key, kv.PrefixInAdj)
	key = append(key, to.Bytes()...)
	key = append(key, edge.Bytes()...)
	return key
}

func inAdjPrefix(to model.NodeID) []byte {
	return append([]byte{kv.PrefixInAdj}, to.Bytes()...)
}

func nodeTypeIndexKey(t model.NodeType, id model.NodeID) []byte {
	key := make([]byte, 0, 1+len(t)+1+16)
	key = append(key, kv.PrefixNodeTypeIndex)
	key = append(key, []byte(t)...)
	key = append(key, 0x00)
	key = append(key, id.Bytes()...)
	return key
}

func nodeTypeIndexPrefix(t model.NodeType) []byte {
	key := make([]byte, 0, 1+len(t)+1)
	key = append(key, kv.PrefixNodeTypeIndex)
	key = append(key, []byte(t)...)
	key = append(key, 0x00)
	return key
}

func edgeTypeIndexKey(t model.EdgeType, id model.EdgeID) []byte {
	key := make([]byte, 0, 1+len(t)+1+16)
	key = append(key, kv.PrefixEdgeTypeIndex)
	key = append(key, []byte(t)...)
	key = append(key, 0x00)
	key = append(key, id.Bytes()...)
	return key
}

func edgeTypeIndexPrefix(t model.EdgeType) []byte {
	key := make([]byte, 0, 1+len(t)+1)
	key = append(key, kv.PrefixEdgeTypeIndex)
	key = append(key, []byte(t)...)
	key = append(key, 0x00)
	return key
}

// lastIDFromFixedSuffix extracts the trailing 16-byte UUID from an adjacency
// index key (format: prefix byte + 16-byte node + 16-byte edge).
func lastIDFromFixedSuffix(key []byte) []byte {
	if len(key) < 16 {
		return nil
	}
	return key[len(key)-16:]
}
