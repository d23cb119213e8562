package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// Retriever answers similarity queries over one loaded index. The chunk set
// is immutable after construction, so Search is safe for concurrent use.
type Retriever struct {
	chunks   []domain.Chunk
	vectors  [][]float32
	embedder domain.Embedder
}

func newRetriever(chunks []domain.Chunk, vectors [][]float32, embedder domain.Embedder) *Retriever {
	return &Retriever{chunks: chunks, vectors: vectors, embedder: embedder}
}

// Len reports the number of indexed chunks.
func (r *Retriever) Len() int { return len(r.chunks) }

// Search embeds the query with the same model used for the chunks and
// returns the top-k chunks by cosine similarity, best first.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	res, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrieval, err)
	}
	if len(r.vectors) > 0 && len(res.Embedding) != len(r.vectors[0]) {
		return nil, fmt.Errorf("%w: query embedding has %d dimensions, index has %d",
			domain.ErrRetrieval, len(res.Embedding), len(r.vectors[0]))
	}

	scored := make([]domain.ScoredChunk, len(r.chunks))
	for i := range r.chunks {
		scored[i] = domain.ScoredChunk{
			Chunk: r.chunks[i],
			Score: cosineSimilarity(res.Embedding, r.vectors[i]),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// cosineSimilarity returns 0 for mismatched dimensions or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
