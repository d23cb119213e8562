package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/knowme/internal/db"
)

type mockListStore struct {
	lists map[string][]string
	ttls  map[string]time.Duration

	rpushErr  error
	lrangeErr error
}

func newMockListStore() *mockListStore {
	return &mockListStore{
		lists: make(map[string][]string),
		ttls:  make(map[string]time.Duration),
	}
}

func (m *mockListStore) RPush(_ context.Context, key string, values ...string) (int64, error) {
	if m.rpushErr != nil {
		return 0, m.rpushErr
	}
	m.lists[key] = append(m.lists[key], values...)
	return int64(len(m.lists[key])), nil
}

func (m *mockListStore) LRange(_ context.Context, key string) ([]string, error) {
	if m.lrangeErr != nil {
		return nil, m.lrangeErr
	}
	elems, ok := m.lists[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return elems, nil
}

func (m *mockListStore) LLen(_ context.Context, key string) (int64, error) {
	return int64(len(m.lists[key])), nil
}

func (m *mockListStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.ttls[key] = ttl
	return nil
}

func (m *mockListStore) Del(_ context.Context, key string) error {
	delete(m.lists, key)
	delete(m.ttls, key)
	return nil
}

func TestRedis_RoundTrip(t *testing.T) {
	kv := newMockListStore()
	r := NewRedis(kv)
	ctx := context.Background()

	if err := r.Append(ctx, "s1", userTurn("hi"), assistantTurn("hello")); err != nil {
		t.Fatalf("append: %v", err)
	}

	turns, err := r.Turns(ctx, "s1")
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0] != userTurn("hi") || turns[1] != assistantTurn("hello") {
		t.Errorf("round trip mismatch: %+v", turns)
	}

	n, err := r.Len(ctx, "s1")
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 2 {
		t.Errorf("expected length 2, got %d", n)
	}
}

func TestRedis_UnknownSessionReadsEmpty(t *testing.T) {
	r := NewRedis(newMockListStore())

	turns, err := r.Turns(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected empty history, got %d turns", len(turns))
	}
}

func TestRedis_MultiTurnAppendIsSingleCommand(t *testing.T) {
	kv := newMockListStore()
	kv.rpushErr = errors.New("connection reset")
	r := NewRedis(kv)

	err := r.Append(context.Background(), "s1", userTurn("q"), assistantTurn("a"))
	if err == nil {
		t.Fatal("expected append error")
	}
	if len(kv.lists[keyPrefix+"s1"]) != 0 {
		t.Error("failed append must leave no partial history")
	}
}

func TestRedis_IdleTTLRefreshedOnAppend(t *testing.T) {
	kv := newMockListStore()
	r := NewRedis(kv).WithIdleTTL(time.Hour)

	if err := r.Append(context.Background(), "s1", userTurn("hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if kv.ttls[keyPrefix+"s1"] != time.Hour {
		t.Errorf("expected ttl refreshed to 1h, got %v", kv.ttls[keyPrefix+"s1"])
	}
}

func TestRedis_Reset(t *testing.T) {
	kv := newMockListStore()
	r := NewRedis(kv)
	ctx := context.Background()

	if err := r.Append(ctx, "s1", userTurn("hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := r.Reset(ctx, "s1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	turns, err := r.Turns(ctx, "s1")
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected empty history after reset, got %d turns", len(turns))
	}
}

func TestRedis_CorruptElementFailsDecode(t *testing.T) {
	kv := newMockListStore()
	kv.lists[keyPrefix+"s1"] = []string{"{not json"}
	r := NewRedis(kv)

	_, err := r.Turns(context.Background(), "s1")
	if err == nil {
		t.Fatal("expected decode error")
	}
}
