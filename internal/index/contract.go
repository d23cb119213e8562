package index

import (
	"context"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// Repository defines the persistence contract for one index location.
type Repository interface {
	Location() string
	Count(ctx context.Context) (int, error)
	Dimensions(ctx context.Context) (int, error)
	SaveAll(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	LoadAll(ctx context.Context) ([]domain.Chunk, [][]float32, error)
	Clear(ctx context.Context) error
}
