// Package session stores per-conversation chat history keyed by session ID.
//
// Two implementations are provided: an in-process store with LRU eviction
// for single-instance deployments, and a Redis-backed store for deployments
// that share history across replicas.
package session

import (
	"context"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// Store is the history contract the chat and agent layers depend on.
//
// Append with multiple turns must be atomic: either every turn becomes
// visible to subsequent reads or none does. Unknown session IDs read as
// empty histories, never as errors.
type Store interface {
	// Turns returns the full history of the session, oldest first.
	Turns(ctx context.Context, id string) ([]domain.Turn, error)
	// Append adds turns to the end of the session's history.
	Append(ctx context.Context, id string, turns ...domain.Turn) error
	// Len returns the number of turns in the session's history.
	Len(ctx context.Context, id string) (int, error)
	// Reset discards the session's history.
	Reset(ctx context.Context, id string) error
}
