package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/knowme/internal/db"
)

// RPush appends values to the list at key. A single RPUSH carries all
// values, so multi-element appends are atomic on the server side.
func (s *Store) RPush(ctx context.Context, key string, values ...string) (int64, error) {
	cmd := s.b().Rpush().Key(key).Element(values...).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpRPush, Err: err}
	}
	return n, nil
}

// LRange returns all elements of the list at key.
func (s *Store) LRange(ctx context.Context, key string) ([]string, error) {
	cmd := s.b().Lrange().Key(key).Start(0).Stop(-1).Build()
	elems, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return elems, nil
}

// LLen returns the length of the list at key, 0 when the key is missing.
func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Llen().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpLLen, Err: err}
	}
	return n, nil
}

// Expire sets a TTL on key.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	cmd := s.b().Expire().Key(key).Seconds(int64(ttl.Seconds())).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

// Del removes key.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}
