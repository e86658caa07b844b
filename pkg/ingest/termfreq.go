package ingest

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/mnemograph/mnemograph/pkg/vectormath"
)

// TermFrequencyEmbedding is the trivial, interchangeable embedding
// generator the engine ships with: it hashes each whitespace-separated
// token into one of dimension buckets and counts occurrences, producing a
// bag-of-words vector normalized for cosine search. It exists so the
// engine is usable without wiring a real embedding model, not as a
// statement that this is how production embeddings should be generated —
// any generator that produces a []float32 of the configured dimension
// works just as well.
func TermFrequencyEmbedding(content string, dimension int) []float32 {
	if dimension <= 0 {
		return nil
	}
	vec := make([]float32, dimension)
	for _, token := range strings.Fields(strings.ToLower(content)) {
		bucket := xxhash.Sum64String(token) % uint64(dimension)
		vec[bucket]++
	}
	return vectormath.Normalize(vec)
}
