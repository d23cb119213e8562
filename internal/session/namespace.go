package session

import (
	"context"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// Compile-time check: Namespace implements Store.
var _ Store = (*Namespace)(nil)

// Namespace scopes every session ID with a fixed prefix, so components
// sharing one backing store keep independent histories for the same
// session ID.
type Namespace struct {
	scope string
	store Store
}

// WithNamespace wraps store so all IDs are scoped to the given prefix.
func WithNamespace(scope string, store Store) *Namespace {
	return &Namespace{scope: scope, store: store}
}

func (n *Namespace) key(id string) string { return n.scope + ":" + id }

func (n *Namespace) Turns(ctx context.Context, id string) ([]domain.Turn, error) {
	return n.store.Turns(ctx, n.key(id))
}

func (n *Namespace) Append(ctx context.Context, id string, turns ...domain.Turn) error {
	return n.store.Append(ctx, n.key(id), turns...)
}

func (n *Namespace) Len(ctx context.Context, id string) (int, error) {
	return n.store.Len(ctx, n.key(id))
}

func (n *Namespace) Reset(ctx context.Context, id string) error {
	return n.store.Reset(ctx, n.key(id))
}
