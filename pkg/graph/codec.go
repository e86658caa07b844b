package graph

import (
	"encoding/json"

	"github.com/mnemograph/mnemograph/pkg/model"
)

func encodeNode(n *model.Node) ([]byte, error) {
	return json.Marshal(n)
}

func decodeNode(data []byte) (*model.Node, error) {
	var n model.Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func encodeEdge(e *model.Edge) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEdge(data []byte) (*model.Edge, error) {
	var e model.Edge
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
