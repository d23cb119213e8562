package agent

import (
	"context"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// ToolModel produces completions that may request tool invocations.
type ToolModel interface {
	CompleteWithTools(ctx context.Context, messages []domain.Message, tools []domain.ToolSpec) (domain.Completion, error)
}

// Answerer is a session-scoped question answering backend. Chat services
// over the website and CV sources are wired in as tools through it.
type Answerer interface {
	Answer(ctx context.Context, sessionID, query string) (string, error)
}

// Sessions is the history store the agent reads and appends to.
type Sessions interface {
	Turns(ctx context.Context, id string) ([]domain.Turn, error)
	Append(ctx context.Context, id string, turns ...domain.Turn) error
}
