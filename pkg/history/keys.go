package history

import (
	"encoding/binary"

	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
)

func versionKey(id string) []byte {
	return append([]byte{kv.PrefixVersion}, []byte(id)...)
}

// versionChainKey orders an entity's versions chronologically:
// entityID (16B) + timestamp (8B big-endian unix nanos) + versionID. The
// big-endian encoding keeps Badger's byte-lexicographic iteration order
// equal to chronological order.
func versionChainKey(entityID model.NodeID, ts int64, versionID string) []byte {
	key := make([]byte, 0, 1+16+8+len(versionID))
	key = append(key, kv.PrefixVersionChain)
	key = append(key, entityID.Bytes()...)
	tsBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(tsBuf, uint64(ts))
	key = append(key, tsBuf...)
	key = append(key, []byte(versionID)...)
	return key
}

func versionChainPrefix(entityID model.NodeID) []byte {
	return append([]byte{kv.PrefixVersionChain}, entityID.Bytes()...)
}

func branchKey(name string) []byte {
	return append([]byte{kv.PrefixBranch}, []byte(name)...)
}

func branchHeadKey(entityID model.NodeID, branch string) []byte {
	key := make([]byte, 0, 1+16+1+len(branch))
	key = append(key, kv.PrefixBranchHead)
	key = append(key, entityID.Bytes()...)
	key = append(key, 0x00)
	key = append(key, []byte(branch)...)
	return key
}
