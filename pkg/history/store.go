// Package history implements the temporal component: version chains with
// parent pointers, named branches, and content reconstruction by replaying
// diffs from a chain's root. Mirrors the Tx/convenience-wrapper split used
// by pkg/graph so the transaction manager can stage history writes into the
// same Badger transaction as graph and vector writes.
package history

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
)

// Store is the history component.
type Store struct {
	kv *kv.Store
}

// New wraps a kv.Store as a history Store.
func New(store *kv.Store) *Store {
	return &Store{kv: store}
}

// RecordVersionTx validates the parent (I3) when ParentID is set, stores the
// entry, indexes it into the entity's version chain, and advances the
// branch head (a branch's head is always its most recently recorded
// version). Fails if the entry's branch has already been merged.
func RecordVersionTx(txn *badger.Txn, v *model.VersionEntry) error {
	if v.ParentID != "" {
		if _, err := getVersionTx(txn, v.ParentID); err != nil {
			return &model.ConstraintViolationError{Constraint: "I3", Detail: "parent version does not exist: " + v.ParentID}
		}
	}

	data, err := encodeVersion(v)
	if err != nil {
		return err
	}
	if err := txn.Set(versionKey(v.VersionID), data); err != nil {
		return err
	}
	if err := txn.Set(versionChainKey(v.EntityID, v.Timestamp.UnixNano(), v.VersionID), []byte(v.VersionID)); err != nil {
		return err
	}
	if v.Branch != "" {
		if err := txn.Set(branchHeadKey(v.EntityID, v.Branch), []byte(v.VersionID)); err != nil {
			return err
		}
		if b, err := getBranchTx(txn, v.Branch); err == nil {
			if b.MergedInto != "" {
				return fmt.Errorf("history: branch %q was merged into %q and accepts no new versions", v.Branch, b.MergedInto)
			}
			b.Head = v.VersionID
			data, err := encodeBranch(b)
			if err != nil {
				return err
			}
			if err := txn.Set(branchKey(v.Branch), data); err != nil {
				return err
			}
		} else if err != model.ErrNotFound {
			return err
		}
	}
	return nil
}

func getVersionTx(txn *badger.Txn, versionID string) (*model.VersionEntry, error) {
	item, err := txn.Get(versionKey(versionID))
	if err == badger.ErrKeyNotFound {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v *model.VersionEntry
	err = item.Value(func(val []byte) error {
		var decErr error
		v, decErr = decodeVersion(val)
		return decErr
	})
	return v, err
}

// CreateBranchTx registers a new named branch for entityID, pointing its
// head and base at baseVersionID (which may be empty if the branch has no
// commits yet). Fails if the branch name already exists (I4).
func CreateBranchTx(txn *badger.Txn, name string, entityID model.NodeID, baseVersionID string, now time.Time) error {
	_, err := txn.Get(branchKey(name))
	if err == nil {
		return &model.BranchExistsError{Name: name}
	}
	if err != badger.ErrKeyNotFound {
		return err
	}
	if baseVersionID != "" {
		if _, err := getVersionTx(txn, baseVersionID); err != nil {
			return &model.ConstraintViolationError{Constraint: "I3", Detail: "base version does not exist: " + baseVersionID}
		}
	}

	data, err := encodeBranch(&model.Branch{
		Name:      name,
		EntityID:  entityID,
		Head:      baseVersionID,
		Base:      baseVersionID,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}
	if err := txn.Set(branchKey(name), data); err != nil {
		return err
	}
	if baseVersionID != "" {
		return txn.Set(branchHeadKey(entityID, name), []byte(baseVersionID))
	}
	return nil
}

func getBranchTx(txn *badger.Txn, name string) (*model.Branch, error) {
	item, err := txn.Get(branchKey(name))
	if err == badger.ErrKeyNotFound {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var b *model.Branch
	err = item.Value(func(val []byte) error {
		var decErr error
		b, decErr = decodeBranch(val)
		return decErr
	})
	return b, err
}

func getBranchHeadTx(txn *badger.Txn, entityID model.NodeID, branch string) (string, error) {
	item, err := txn.Get(branchHeadKey(entityID, branch))
	if err == badger.ErrKeyNotFound {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	var head string
	err = item.Value(func(val []byte) error {
		head = string(val)
		return nil
	})
	return head, err
}

// ---- Store-level convenience wrappers ----

func (s *Store) RecordVersion(v *model.VersionEntry) error {
	return s.kv.DB.Update(func(txn *badger.Txn) error { return RecordVersionTx(txn, v) })
}

func (s *Store) GetVersion(versionID string) (*model.VersionEntry, error) {
	var v *model.VersionEntry
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		got, err := getVersionTx(txn, versionID)
		v = got
		return err
	})
	return v, err
}

func (s *Store) CreateBranch(name string, entityID model.NodeID, baseVersionID string, now time.Time) error {
	return s.kv.DB.Update(func(txn *badger.Txn) error { return CreateBranchTx(txn, name, entityID, baseVersionID, now) })
}

// GetBranch returns the named branch's record (head, base, created_at, and
// merged_into if it has been merged).
func (s *Store) GetBranch(name string) (*model.Branch, error) {
	var b *model.Branch
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		got, err := getBranchTx(txn, name)
		b = got
		return err
	})
	return b, err
}

func (s *Store) GetBranchHead(entityID model.NodeID, branch string) (string, error) {
	var head string
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		h, err := getBranchHeadTx(txn, entityID, branch)
		head = h
		return err
	})
	return head, err
}

// GetVersionChain returns every version recorded for entityID, ordered
// chronologically (oldest first).
func (s *Store) GetVersionChain(entityID model.NodeID) ([]*model.VersionEntry, error) {
	var chain []*model.VersionEntry
	prefix := versionChainPrefix(entityID)
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var versionID string
			if err := it.Item().Value(func(val []byte) error {
				versionID = string(val)
				return nil
			}); err != nil {
				return err
			}
			v, err := getVersionTx(txn, versionID)
			if err != nil {
				return err
			}
			chain = append(chain, v)
		}
		return nil
	})
	return chain, err
}

// GetContentAtVersion reconstructs an entity's content as of versionID by
// walking the parent chain back to the Initial root, then replaying each
// diff forward in chronological order.
func (s *Store) GetContentAtVersion(versionID string) (string, error) {
	var chain []*model.VersionEntry
	err := s.kv.DB.View(func(txn *badger.Txn) error {
		cur := versionID
		for cur != "" {
			v, err := getVersionTx(txn, cur)
			if err != nil {
				return err
			}
			chain = append(chain, v)
			cur = v.ParentID
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	// chain is target-to-root; reverse to root-to-target for replay.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	var content string
	for _, v := range chain {
		content = applyDiff(content, v.Diff)
	}
	return content, nil
}

// applyDiff applies a single Diff on top of content, following the post-image
// semantics this store standardizes on: ContentChanged and Initial both
// carry the full resulting body, not a line-oriented patch.
func applyDiff(content string, d model.Diff) string {
	switch d.Kind {
	case model.DiffInitial, model.DiffContentChanged:
		return d.Content
	case model.DiffMetadataChanged:
		return content
	case model.DiffComposite:
		for _, child := range d.Children {
			content = applyDiff(content, child)
		}
		return content
	default:
		return content
	}
}

// GetContentAtTimestamp reconstructs an entity's content as it stood at
// timestamp on the given branch: the latest version on that branch's chain
// whose Timestamp is <= timestamp.
func (s *Store) GetContentAtTimestamp(entityID model.NodeID, branch string, timestamp time.Time) (string, error) {
	chain, err := s.GetVersionChain(entityID)
	if err != nil {
		return "", err
	}
	var latest *model.VersionEntry
	for _, v := range chain {
		if v.Branch != branch {
			continue
		}
		if v.Timestamp.After(timestamp) {
			continue
		}
		if latest == nil || v.Timestamp.After(latest.Timestamp) {
			latest = v
		}
	}
	if latest == nil {
		return "", model.ErrNotFound
	}
	return s.GetContentAtVersion(latest.VersionID)
}

// MergeBranch records a new version on targetBranch that folds in
// sourceBranch's current head, advances targetBranch's head to it, and marks
// sourceBranch as merged into targetBranch (its state machine transition to
// Merged — read-only with respect to new versions under that branch name).
// The merge commit is always bound to the real entityID it describes — never
// a nil/zero id, regardless of what either branch's head version looked
// like.
func (s *Store) MergeBranch(entityID model.NodeID, sourceBranch, targetBranch, versionID, message, author string, now time.Time) (*model.VersionEntry, error) {
	var merged *model.VersionEntry
	err := s.kv.DB.Update(func(txn *badger.Txn) error {
		sourceHead, err := getBranchHeadTx(txn, entityID, sourceBranch)
		if err != nil {
			return err
		}
		targetHead, err := getBranchHeadTx(txn, entityID, targetBranch)
		if err != nil {
			return err
		}
		sourceEntry, err := getVersionTx(txn, sourceHead)
		if err != nil {
			return err
		}

		merged = &model.VersionEntry{
			VersionID: versionID,
			EntityID:  entityID,
			ParentID:  targetHead,
			Branch:    targetBranch,
			Diff:      model.Diff{Kind: model.DiffComposite, Children: []model.Diff{sourceEntry.Diff}},
			Message:   message,
			Author:    author,
			Timestamp: now,
		}
		if err := RecordVersionTx(txn, merged); err != nil {
			return err
		}

		if source, err := getBranchTx(txn, sourceBranch); err == nil {
			source.MergedInto = targetBranch
			data, err := encodeBranch(source)
			if err != nil {
				return err
			}
			return txn.Set(branchKey(sourceBranch), data)
		} else if err != model.ErrNotFound {
			return err
		}
		return nil
	})
	return merged, err
}
