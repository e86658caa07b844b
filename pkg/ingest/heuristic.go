package ingest

import (
	"strings"
	"time"

	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/mnemograph/mnemograph/pkg/txn"
)

// NameContainmentProducer is the synthetic edge-detection heuristic the
// core treats purely as an Insert* op producer: for each pair of sources,
// if one's content contains the other's name, it proposes a Calls (between
// two Functions) or Imports (otherwise) edge. It is a best-effort,
// intentionally-crude signal — it may add edges; the transaction manager
// still validates every one of them (I1) and the core never trusts it
// beyond that.
type NameContainmentProducer struct {
	Nodes NodeProducer
}

// Produce implements Producer: one InsertNode per source, plus InsertEdge
// ops for every name-containment match found between distinct sources.
func (p NameContainmentProducer) Produce(sources []Source, now time.Time) ([]txn.Operation, error) {
	nodeOps, err := p.Nodes.Produce(sources, now)
	if err != nil {
		return nil, err
	}

	ids := make([]model.NodeID, len(nodeOps))
	for i, op := range nodeOps {
		ids[i] = op.Node.ID
	}

	ops := append([]txn.Operation(nil), nodeOps...)
	for i, src := range sources {
		for j, other := range sources {
			if i == j || src.Name == "" {
				continue
			}
			if !strings.Contains(other.Content, src.Name) {
				continue
			}
			edgeType := model.EdgeImports
			if src.Type == model.NodeFunction && other.Type == model.NodeFunction {
				edgeType = model.EdgeCalls
			}
			ops = append(ops, txn.Operation{
				Kind: txn.OpInsertEdge,
				Edge: &model.Edge{
					ID:       model.NewEdgeID(),
					Type:     edgeType,
					FromNode: ids[j],
					ToNode:   ids[i],
					Temporal: model.TemporalRange{SinceTS: now},
				},
			})
		}
	}
	return ops, nil
}
