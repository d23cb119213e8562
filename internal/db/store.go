// Package db abstracts the key/value store used for shared session state.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrKeyNotFound signals a missing key.
var ErrKeyNotFound = errors.New("key not found")

// Op identifies the failing store operation.
type Op string

const (
	OpRPush  Op = "rpush"
	OpLRange Op = "lrange"
	OpLLen   Op = "llen"
	OpExpire Op = "expire"
	OpDel    Op = "del"
)

// Error wraps a store failure with the operation that caused it.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("db %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Store is the list/key contract the session layer depends on.
type Store interface {
	// RPush appends values to the list at key and returns the new length.
	RPush(ctx context.Context, key string, values ...string) (int64, error)
	// LRange returns every element of the list at key, in order.
	LRange(ctx context.Context, key string) ([]string, error)
	// LLen returns the length of the list at key (0 when missing).
	LLen(ctx context.Context, key string) (int64, error)
	// Expire sets a TTL on key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Del removes key.
	Del(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close()
}
