package vectorindex

import "github.com/mnemograph/mnemograph/pkg/kv"

// counterKey holds the monotonic insertion-sequence counter. It is shorter
// than any embedding key (prefix + 16-byte node id), so it can never collide
// with one.
var counterKey = []byte{kv.PrefixEmbedding, 0xFF}

func embeddingKey(id [16]byte) []byte {
	return append([]byte{kv.PrefixEmbedding}, id[:]...)
}
