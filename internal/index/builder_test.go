package index

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	chunks  []domain.Chunk
	vectors [][]float32
	saveErr error
	loadErr error
}

func (m *mockRepo) Location() string { return "mock" }

func (m *mockRepo) Count(_ context.Context) (int, error) {
	return len(m.chunks), nil
}

func (m *mockRepo) Dimensions(_ context.Context) (int, error) {
	if len(m.vectors) == 0 {
		return 0, nil
	}
	return len(m.vectors[0]), nil
}

func (m *mockRepo) SaveAll(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.chunks = chunks
	m.vectors = vectors
	return nil
}

func (m *mockRepo) LoadAll(_ context.Context) ([]domain.Chunk, [][]float32, error) {
	if m.loadErr != nil {
		return nil, nil, m.loadErr
	}
	return m.chunks, m.vectors, nil
}

func (m *mockRepo) Clear(_ context.Context) error {
	m.chunks, m.vectors = nil, nil
	return nil
}

// wordEmbedder maps known words onto fixed axes so similarity is predictable.
type wordEmbedder struct {
	err   error
	calls int
}

var wordAxes = map[string]int{"alpha": 0, "beta": 1, "gamma": 2}

func (e *wordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	vec := make([]float32, 3)
	if axis, ok := wordAxes[text]; ok {
		vec[axis] = 1
	} else {
		vec[0], vec[1], vec[2] = 1, 1, 1
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func chunksOf(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{ID: t, Text: t}
	}
	return chunks
}

// --- Tests ---

func TestBuildOrLoad_BuildsWhenEmpty(t *testing.T) {
	repo := &mockRepo{}
	b := NewBuilder(&wordEmbedder{}, zap.NewNop())

	ret, err := b.BuildOrLoad(context.Background(), repo, chunksOf("alpha", "beta"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ret.Len() != 2 {
		t.Errorf("expected 2 indexed chunks, got %d", ret.Len())
	}
	if len(repo.chunks) != 2 {
		t.Errorf("expected 2 persisted chunks, got %d", len(repo.chunks))
	}
}

// A second build against a populated location must ignore the new chunks and
// load the first build's index.
func TestBuildOrLoad_Idempotent(t *testing.T) {
	repo := &mockRepo{}
	b := NewBuilder(&wordEmbedder{}, zap.NewNop())
	ctx := context.Background()

	if _, err := b.BuildOrLoad(ctx, repo, chunksOf("alpha")); err != nil {
		t.Fatalf("first build: %v", err)
	}

	ret, err := b.BuildOrLoad(ctx, repo, chunksOf("beta", "gamma"))
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if ret.Len() != 1 {
		t.Fatalf("expected index from first build (1 chunk), got %d", ret.Len())
	}
	if repo.chunks[0].Text != "alpha" {
		t.Errorf("persisted index was overwritten: %q", repo.chunks[0].Text)
	}
}

func TestBuildOrLoad_EmptyChunksOnFreshLocation(t *testing.T) {
	repo := &mockRepo{}
	b := NewBuilder(&wordEmbedder{}, zap.NewNop())

	_, err := b.BuildOrLoad(context.Background(), repo, nil)
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestBuildOrLoad_EmbeddingFailurePropagates(t *testing.T) {
	repo := &mockRepo{}
	embErr := domain.ErrEmbedding
	b := NewBuilder(&wordEmbedder{err: embErr}, zap.NewNop())

	_, err := b.BuildOrLoad(context.Background(), repo, chunksOf("alpha"))
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if len(repo.chunks) != 0 {
		t.Error("no chunks should be persisted when embedding fails")
	}
}

// An index persisted with one embedding dimension must not load under a
// different configured dimension: every score would silently collapse to 0.
func TestBuildOrLoad_DimensionMismatchFails(t *testing.T) {
	repo := &mockRepo{}
	ctx := context.Background()

	first := NewBuilder(&wordEmbedder{}, zap.NewNop()).WithDimensions(3)
	if _, err := first.BuildOrLoad(ctx, repo, chunksOf("alpha", "beta")); err != nil {
		t.Fatalf("build: %v", err)
	}

	second := NewBuilder(&wordEmbedder{}, zap.NewNop()).WithDimensions(4)
	_, err := second.BuildOrLoad(ctx, repo, nil)
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore on dimension mismatch, got %v", err)
	}
}

func TestBuildOrLoad_UnsetDimensionsSkipsCheck(t *testing.T) {
	repo := &mockRepo{}
	ctx := context.Background()

	b := NewBuilder(&wordEmbedder{}, zap.NewNop())
	if _, err := b.BuildOrLoad(ctx, repo, chunksOf("alpha")); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := b.BuildOrLoad(ctx, repo, nil); err != nil {
		t.Fatalf("load without configured dimensions: %v", err)
	}
}

func TestRebuild_ReplacesIndex(t *testing.T) {
	repo := &mockRepo{}
	b := NewBuilder(&wordEmbedder{}, zap.NewNop())
	ctx := context.Background()

	if _, err := b.BuildOrLoad(ctx, repo, chunksOf("alpha")); err != nil {
		t.Fatalf("first build: %v", err)
	}
	ret, err := b.Rebuild(ctx, repo, chunksOf("beta", "gamma"))
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if ret.Len() != 2 {
		t.Errorf("expected rebuilt index with 2 chunks, got %d", ret.Len())
	}
	if repo.chunks[0].Text != "beta" {
		t.Errorf("rebuild did not replace the index: %q", repo.chunks[0].Text)
	}
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	repo := &mockRepo{}
	b := NewBuilder(&wordEmbedder{}, zap.NewNop())
	ctx := context.Background()

	ret, err := b.BuildOrLoad(ctx, repo, chunksOf("alpha", "beta", "gamma"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	results, err := ret.Search(ctx, "beta", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.Text != "beta" {
		t.Errorf("expected best match beta, got %q", results[0].Chunk.Text)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("results not ordered by score: %f <= %f", results[0].Score, results[1].Score)
	}
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	repo := &mockRepo{}
	b := NewBuilder(&wordEmbedder{}, zap.NewNop())
	ctx := context.Background()

	ret, err := b.BuildOrLoad(ctx, repo, chunksOf("alpha"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	results, err := ret.Search(ctx, "alpha", 6)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestSearch_EmbedFailureIsRetrievalError(t *testing.T) {
	emb := &wordEmbedder{}
	repo := &mockRepo{}
	b := NewBuilder(emb, zap.NewNop())
	ctx := context.Background()

	ret, err := b.BuildOrLoad(ctx, repo, chunksOf("alpha"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	emb.err = domain.ErrEmbedding
	_, err = ret.Search(ctx, "anything", 1)
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected underlying ErrEmbedding, got %v", err)
	}
}

// fixedEmbedder always returns a vector of the given dimension.
type fixedEmbedder struct{ dim int }

func (e *fixedEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	vec := make([]float32, e.dim)
	for i := range vec {
		vec[i] = 1
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func TestSearch_QueryDimensionMismatchIsRetrievalError(t *testing.T) {
	ret := newRetriever(chunksOf("alpha"), [][]float32{{1, 0, 0}}, &fixedEmbedder{dim: 4})

	_, err := ret.Search(context.Background(), "anything", 1)
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval on dimension mismatch, got %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical vectors: expected ~1, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors: expected 0, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 0}); got != 0 {
		t.Errorf("zero vector: expected 0, got %f", got)
	}
	if got := cosineSimilarity([]float32{1}, []float32{1, 0}); got != 0 {
		t.Errorf("dimension mismatch: expected 0, got %f", got)
	}
}
