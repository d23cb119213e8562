package chat

import (
	"context"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// Retriever finds the chunks most similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}

// ChatModel produces a completion for a conversation.
type ChatModel interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
}

// Sessions is the history store the service reads and appends to.
type Sessions interface {
	Turns(ctx context.Context, id string) ([]domain.Turn, error)
	Append(ctx context.Context, id string, turns ...domain.Turn) error
}
