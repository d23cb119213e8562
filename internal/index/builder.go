// Package index builds and loads the persisted vector index of a knowledge
// source and exposes similarity search over it.
package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// Builder constructs retrievers over persisted chunk repositories.
type Builder struct {
	embedder   domain.Embedder
	dimensions int
	logger     *zap.Logger
}

// NewBuilder creates an index builder.
func NewBuilder(embedder domain.Embedder, logger *zap.Logger) *Builder {
	return &Builder{embedder: embedder, logger: logger}
}

// WithDimensions sets the expected embedding dimension. Loading a persisted
// index recorded with a different dimension then fails instead of returning
// a retriever whose similarity scores would all collapse to zero.
func (b *Builder) WithDimensions(d int) *Builder {
	b.dimensions = d
	return b
}

// BuildOrLoad returns a retriever over the repository's location.
//
// A populated location is loaded as-is and any supplied chunks are ignored:
// rebuilding is an explicit, separate action (Rebuild), never an implicit one.
// An unpopulated location requires a non-empty chunk sequence, which is
// embedded and persisted before the retriever is returned.
func (b *Builder) BuildOrLoad(ctx context.Context, repo Repository, chunks []domain.Chunk) (*Retriever, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("check index %s: %w", repo.Location(), err)
	}

	if count > 0 {
		dim, err := repo.Dimensions(ctx)
		if err != nil {
			return nil, fmt.Errorf("read index %s: %w", repo.Location(), err)
		}
		if b.dimensions > 0 && dim != b.dimensions {
			return nil, fmt.Errorf("index %s holds %d-dimensional embeddings but %d are configured, rebuild it: %w",
				repo.Location(), dim, b.dimensions, domain.ErrStore)
		}

		stored, vectors, err := repo.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load index %s: %w", repo.Location(), err)
		}
		b.logger.Info("index loaded",
			zap.String("location", repo.Location()),
			zap.Int("chunks", len(stored)),
		)
		return newRetriever(stored, vectors, b.embedder), nil
	}

	return b.build(ctx, repo, chunks)
}

// Rebuild discards any persisted index at the repository's location and
// builds a fresh one from the supplied chunks.
func (b *Builder) Rebuild(ctx context.Context, repo Repository, chunks []domain.Chunk) (*Retriever, error) {
	if err := repo.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear index %s: %w", repo.Location(), err)
	}
	return b.build(ctx, repo, chunks)
}

func (b *Builder) build(ctx context.Context, repo Repository, chunks []domain.Chunk) (*Retriever, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("building index %s requires chunks: %w", repo.Location(), domain.ErrStore)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	var vectors [][]float32
	if be, ok := b.embedder.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		vectors = res.Embeddings
	} else {
		res, err := domain.BatchFallback(ctx, b.embedder, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		vectors = res.Embeddings
	}

	if err := repo.SaveAll(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("persist index %s: %w", repo.Location(), err)
	}

	b.logger.Info("index built",
		zap.String("location", repo.Location()),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", len(vectors[0])),
	)
	return newRetriever(chunks, vectors, b.embedder), nil
}
