package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/knowme/internal/db"
	"github.com/kailas-cloud/knowme/internal/domain"
)

// Compile-time check: Redis implements Store.
var _ Store = (*Redis)(nil)

const keyPrefix = "knowme:session:"

// store is the subset of db.Store the Redis session store uses.
type store interface {
	RPush(ctx context.Context, key string, values ...string) (int64, error)
	LRange(ctx context.Context, key string) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Redis stores session history as a Redis list, one JSON-encoded turn per
// element. A multi-turn Append is a single RPUSH, so partially visible
// appends cannot occur. An optional idle TTL is refreshed on every append.
type Redis struct {
	store   store
	idleTTL time.Duration
}

// NewRedis creates a Redis-backed session store.
func NewRedis(store store) *Redis {
	return &Redis{store: store}
}

// WithIdleTTL expires sessions that receive no appends for ttl.
func (r *Redis) WithIdleTTL(ttl time.Duration) *Redis {
	r.idleTTL = ttl
	return r
}

// Turns returns the session's history, empty for unknown IDs.
func (r *Redis) Turns(ctx context.Context, id string) ([]domain.Turn, error) {
	elems, err := r.store.LRange(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	turns := make([]domain.Turn, 0, len(elems))
	for _, el := range elems {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(el), &turn); err != nil {
			return nil, fmt.Errorf("decode session %s turn: %w", id, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Append adds turns to the session with one RPUSH.
func (r *Redis) Append(ctx context.Context, id string, turns ...domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	elems := make([]string, len(turns))
	for i, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode session %s turn: %w", id, err)
		}
		elems[i] = string(data)
	}

	key := keyPrefix + id
	if _, err := r.store.RPush(ctx, key, elems...); err != nil {
		return fmt.Errorf("append session %s: %w", id, err)
	}
	if r.idleTTL > 0 {
		if err := r.store.Expire(ctx, key, r.idleTTL); err != nil {
			return fmt.Errorf("refresh session %s ttl: %w", id, err)
		}
	}
	return nil
}

// Len returns the number of turns in the session.
func (r *Redis) Len(ctx context.Context, id string) (int, error) {
	n, err := r.store.LLen(ctx, keyPrefix+id)
	if err != nil {
		return 0, fmt.Errorf("len session %s: %w", id, err)
	}
	return int(n), nil
}

// Reset discards the session's history.
func (r *Redis) Reset(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("reset session %s: %w", id, err)
	}
	return nil
}
