package knowledge

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const localEmbeddingDim = 256

// LocalEmbedder derives deterministic embeddings from hashed bag-of-words
// term frequencies, L2-normalized. No network calls, stable across runs;
// coarse, but good enough for lexical nearest-neighbor grounding and for
// offline or test deployments.
type LocalEmbedder struct{}

// NewLocalEmbedder creates a new local embedder
func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{}
}

// Embed derives a vector for the given text
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, localEmbeddingDim)

	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%localEmbeddingDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
