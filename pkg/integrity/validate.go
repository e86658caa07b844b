// Package integrity implements validate_integrity: an offline consistency
// scan over the persisted state, checking the invariants the engine relies
// on but cannot always enforce proactively across every failure mode
// (operator-triggered restores, manual data surgery, bugs). It is read-only
// — callers decide whether and how to repair what it reports.
package integrity

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/mnemograph/mnemograph/pkg/graph"
	"github.com/mnemograph/mnemograph/pkg/history"
	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/mnemograph/mnemograph/pkg/vectorindex"
)

// Issue describes one invariant violation found during a scan.
type Issue struct {
	Constraint string
	Detail     string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s", i.Constraint, i.Detail)
}

// Report is the outcome of a validation pass.
type Report struct {
	Issues []Issue
}

// OK reports whether the scan found no issues.
func (r *Report) OK() bool { return len(r.Issues) == 0 }

func (r *Report) add(constraint, detail string) {
	r.Issues = append(r.Issues, Issue{Constraint: constraint, Detail: detail})
}

// Validate scans every node, edge, embedding, and version entry for
// invariant violations:
//
//   - I1: every edge's endpoints exist as nodes
//   - I2: every embedding's node exists
//   - I5: every node's content_hash matches sha256(content)
//   - I6: every embedding's dimensionality matches the vector store's
//   - I3: every version's parent exists, when set
func Validate(store *kv.Store, g *graph.Store, v *vectorindex.Store, h *history.Store) (*Report, error) {
	report := &Report{}

	err := store.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		nodeIDs := map[model.NodeID]bool{}

		nodePrefix := []byte{kv.PrefixNode}
		it := txn.NewIterator(opts)
		for it.Seek(nodePrefix); it.ValidForPrefix(nodePrefix); it.Next() {
			raw := it.Item().KeyCopy(nil)[1:]
			id, err := model.NodeIDFromBytes(raw)
			if err != nil {
				it.Close()
				return err
			}
			nodeIDs[id] = true

			if err := it.Item().Value(func(val []byte) error {
				var n model.Node
				if err := unmarshalNode(val, &n); err != nil {
					return err
				}
				if want := model.ContentHashOf(n.Content); want != n.ContentHash {
					report.add("I5", fmt.Sprintf("node %s: content_hash %q does not match sha256(content) %q", id, n.ContentHash, want))
				}
				return nil
			}); err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		edgePrefix := []byte{kv.PrefixEdge}
		it = txn.NewIterator(opts)
		for it.Seek(edgePrefix); it.ValidForPrefix(edgePrefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				var e model.Edge
				if err := unmarshalEdge(val, &e); err != nil {
					return err
				}
				if !nodeIDs[e.FromNode] {
					report.add("I1", fmt.Sprintf("edge %s: from_node %s does not exist", e.ID, e.FromNode))
				}
				if !nodeIDs[e.ToNode] {
					report.add("I1", fmt.Sprintf("edge %s: to_node %s does not exist", e.ID, e.ToNode))
				}
				return nil
			}); err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		embPrefix := []byte{kv.PrefixEmbedding}
		it = txn.NewIterator(opts)
		for it.Seek(embPrefix); it.ValidForPrefix(embPrefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if len(key) != 17 {
				continue // reserved sequence-counter key
			}
			id, err := model.NodeIDFromBytes(key[1:])
			if err != nil {
				it.Close()
				return err
			}
			if !nodeIDs[id] {
				report.add("I2", fmt.Sprintf("embedding for node %s: node does not exist", id))
			}
			if err := it.Item().Value(func(val []byte) error {
				dims, err := embeddingDimensions(val)
				if err != nil {
					return err
				}
				if v.Dimensions != 0 && dims != v.Dimensions {
					report.add("I6", fmt.Sprintf("embedding for node %s: dimension %d does not match store dimension %d", id, dims, v.Dimensions))
				}
				return nil
			}); err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		verPrefix := []byte{kv.PrefixVersion}
		it = txn.NewIterator(opts)
		for it.Seek(verPrefix); it.ValidForPrefix(verPrefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				var ver model.VersionEntry
				if err := unmarshalVersion(val, &ver); err != nil {
					return err
				}
				if ver.ParentID == "" {
					return nil
				}
				if _, err := txn.Get(append([]byte{kv.PrefixVersion}, []byte(ver.ParentID)...)); err == badger.ErrKeyNotFound {
					report.add("I3", fmt.Sprintf("version %s: parent %s does not exist", ver.VersionID, ver.ParentID))
				}
				return nil
			}); err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		return nil
	})

	return report, err
}
