// Package ingest defines the boundary between the engine and whatever feeds
// it content: a Source is a unit of content to add to the graph, a
// Producer turns a batch of sources into transaction operations, and the
// engine only ever consumes the ops a Producer yields. Source-language
// parsing heuristics and embedding generation are both interchangeable
// behind this contract — only it is specified; the concrete strategies in
// this package (name-containment edge detection, term-frequency
// embeddings) are reference implementations, not the only valid ones.
package ingest

import (
	"time"

	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/mnemograph/mnemograph/pkg/txn"
)

// Source is one unit of content a Producer turns into graph operations.
type Source struct {
	Name    string
	Type    model.NodeType
	Content string
}

// Producer turns a batch of sources into the operations that, staged
// together through a txn.Manager, add them (and whatever relationships a
// given Producer infers) to the graph. A Producer may add edges on a
// best-effort basis; it must never rely on them existing, and any edge it
// proposes is still validated by the transaction manager like any other
// InsertEdge op — a Producer cannot bypass I1.
type Producer interface {
	Produce(sources []Source, now time.Time) ([]txn.Operation, error)
}

// NodeProducer is the baseline Producer: one InsertNode op per source, no
// edge inference. Useful on its own, or as a building block composed with
// an edge-inferring Producer like NameContainmentProducer.
type NodeProducer struct{}

// Produce implements Producer.
func (NodeProducer) Produce(sources []Source, now time.Time) ([]txn.Operation, error) {
	ops := make([]txn.Operation, 0, len(sources))
	for _, src := range sources {
		n := &model.Node{
			ID:        model.NewNodeID(),
			Type:      src.Type,
			Name:      src.Name,
			Content:   src.Content,
			CreatedAt: now,
		}
		n.Touch(now)
		ops = append(ops, txn.Operation{Kind: txn.OpInsertNode, Node: n})
	}
	return ops, nil
}
