// Package vectorindex implements the vector-similarity component: embeddings
// persisted in the shared Badger store, searched by exact brute-force cosine
// similarity. Vectors are normalized on insert so that similarity search
// reduces to a dot product — the same optimization nornicdb's
// pkg/search.VectorIndex uses, applied here to a persisted rather than
// purely in-memory index so embeddings survive a restart.
package vectorindex

import (
	"encoding/binary"
	"encoding/json"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/mnemograph/mnemograph/pkg/vectormath"
)

// Store is the vector-index component. Dimensions is fixed on the first
// insert and enforced on every subsequent one (I6).
type Store struct {
	kv         *kv.Store
	Dimensions int
}

// New wraps a kv.Store as a vector index with an expected dimensionality.
// Pass 0 to infer the dimensionality from the first inserted embedding.
func New(store *kv.Store, dimensions int) *Store {
	return &Store{kv: store, Dimensions: dimensions}
}

// entry is the on-disk form of a stored embedding: the normalized vector
// plus the monotonic sequence number used to break similarity-score ties in
// insertion order.
type entry struct {
	Vector []float32 `json:"vector"`
	Seq    uint64    `json:"seq"`
}

// InsertEmbeddingTx validates the vector's dimensionality against s, stores
// it normalized, and stamps it with the next insertion sequence number.
func (s *Store) InsertEmbeddingTx(txn *badger.Txn, e model.Embedding) error {
	if s.Dimensions != 0 && len(e.Vector) != s.Dimensions {
		return &model.DimensionMismatchError{Expected: s.Dimensions, Got: len(e.Vector)}
	}
	if s.Dimensions == 0 {
		s.Dimensions = len(e.Vector)
	}

	seq, err := nextSeq(txn)
	if err != nil {
		return err
	}

	id := e.NodeID.Bytes()
	var raw [16]byte
	copy(raw[:], id)

	data, err := json.Marshal(entry{Vector: vectormath.Normalize(e.Vector), Seq: seq})
	if err != nil {
		return err
	}
	return txn.Set(embeddingKey(raw), data)
}

// DeleteEmbeddingTx removes the embedding for nodeID, if one exists.
func (s *Store) DeleteEmbeddingTx(txn *badger.Txn, nodeID model.NodeID) error {
	var raw [16]byte
	copy(raw[:], nodeID.Bytes())
	err := txn.Delete(embeddingKey(raw))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	return err
}

func nextSeq(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(counterKey)
	var next uint64
	if err == nil {
		err = item.Value(func(val []byte) error {
			next = binary.BigEndian.Uint64(val) + 1
			return nil
		})
		if err != nil {
			return 0, err
		}
	} else if err != badger.ErrKeyNotFound {
		return 0, err
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := txn.Set(counterKey, buf); err != nil {
		return 0, err
	}
	return next, nil
}

// Result is one hit from Search.
type Result struct {
	NodeID model.NodeID
	Score  float64
}

// InsertEmbedding is the standalone convenience wrapper around
// InsertEmbeddingTx, opening its own transaction.
func (s *Store) InsertEmbedding(e model.Embedding) error {
	return s.kv.DB.Update(func(txn *badger.Txn) error { return s.InsertEmbeddingTx(txn, e) })
}

// DeleteEmbedding is the standalone convenience wrapper around
// DeleteEmbeddingTx.
func (s *Store) DeleteEmbedding(nodeID model.NodeID) error {
	return s.kv.DB.Update(func(txn *badger.Txn) error { return s.DeleteEmbeddingTx(txn, nodeID) })
}

// Search returns the topK nearest embeddings to query by cosine similarity,
// computed by brute-force comparison against every stored vector. query need
// not be pre-normalized; stored vectors already are, so similarity reduces
// to a dot product against a normalized copy of query. Ties in score are
// broken by insertion order (earliest first).
func (s *Store) Search(query []float32, topK int) ([]Result, error) {
	if s.Dimensions != 0 && len(query) != s.Dimensions {
		return nil, &model.DimensionMismatchError{Expected: s.Dimensions, Got: len(query)}
	}
	normalizedQuery := vectormath.Normalize(query)

	type scored struct {
		Result
		seq uint64
	}
	var all []scored

	err := s.kv.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte{kv.PrefixEmbedding}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if len(key) != 17 { // skip the reserved counter key
				continue
			}
			nodeID, err := model.NodeIDFromBytes(key[1:])
			if err != nil {
				return err
			}
			var e entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			all = append(all, scored{
				Result: Result{NodeID: nodeID, Score: vectormath.DotProduct(normalizedQuery, e.Vector)},
				seq:    e.Seq,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].seq < all[j].seq
	})

	if topK > 0 && topK < len(all) {
		all = all[:topK]
	}
	results := make([]Result, len(all))
	for i, s := range all {
		results[i] = s.Result
	}
	return results, nil
}
