package session

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// Compile-time check: Memory implements Store.
var _ Store = (*Memory)(nil)

const defaultMaxSessions = 1024

// memoryEntry holds one session. Its own mutex guards turns and lastSeen,
// so appends to one session never block reads of another. The map mutex in
// Memory guards membership only. Lock order is always map before entry.
type memoryEntry struct {
	mu       sync.Mutex
	turns    []domain.Turn
	lastSeen time.Time
}

// Memory is an in-process session store. Sessions are created lazily on
// first append. When the session count exceeds the configured cap, the
// least recently used session is evicted; an optional idle TTL drops
// sessions that have not been touched for longer than the TTL.
type Memory struct {
	mu          sync.RWMutex
	sessions    map[string]*memoryEntry
	maxSessions int
	idleTTL     time.Duration
	now         func() time.Time
}

// NewMemory creates an in-process store capped at maxSessions.
// A non-positive cap falls back to the default.
func NewMemory(maxSessions int) *Memory {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &Memory{
		sessions:    make(map[string]*memoryEntry),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// WithIdleTTL makes sessions idle longer than ttl eligible for eviction
// on any subsequent store access.
func (m *Memory) WithIdleTTL(ttl time.Duration) *Memory {
	m.idleTTL = ttl
	return m
}

// Turns returns a copy of the session's history, empty for unknown IDs.
func (m *Memory) Turns(_ context.Context, id string) ([]domain.Turn, error) {
	entry := m.lookup(id)
	if entry == nil {
		return nil, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.lastSeen = m.now()

	turns := make([]domain.Turn, len(entry.turns))
	copy(turns, entry.turns)
	return turns, nil
}

// Append adds turns to the session, creating it on first use.
func (m *Memory) Append(_ context.Context, id string, turns ...domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	entry := m.lookup(id)
	if entry == nil {
		entry = m.create(id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.turns = append(entry.turns, turns...)
	entry.lastSeen = m.now()
	return nil
}

// Len returns the number of turns in the session, 0 for unknown IDs.
func (m *Memory) Len(_ context.Context, id string) (int, error) {
	entry := m.lookup(id)
	if entry == nil {
		return 0, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return len(entry.turns), nil
}

// Reset discards the session's history. Resetting an unknown ID is a no-op.
func (m *Memory) Reset(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// lookup finds a live entry under the read lock. Entries idle past the TTL
// are dropped on the spot and reported as missing.
func (m *Memory) lookup(id string) *memoryEntry {
	m.mu.RLock()
	entry := m.sessions[id]
	m.mu.RUnlock()
	if entry == nil {
		return nil
	}

	if m.idleTTL > 0 {
		entry.mu.Lock()
		stale := entry.lastSeen.Before(m.now().Add(-m.idleTTL))
		entry.mu.Unlock()
		if stale {
			m.mu.Lock()
			if m.sessions[id] == entry {
				delete(m.sessions, id)
			}
			m.mu.Unlock()
			return nil
		}
	}
	return entry
}

// create inserts a fresh entry, double-checking under the write lock since
// another goroutine may have created the session after lookup missed.
func (m *Memory) create(id string) *memoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.sessions[id]; ok {
		return entry
	}

	m.sweepLocked()
	entry := &memoryEntry{lastSeen: m.now()}
	m.sessions[id] = entry
	m.evictLocked(id)
	return entry
}

// sweepLocked drops sessions idle longer than the TTL. Caller holds the
// map write lock.
func (m *Memory) sweepLocked() {
	if m.idleTTL <= 0 {
		return
	}
	cutoff := m.now().Add(-m.idleTTL)
	for id, entry := range m.sessions {
		entry.mu.Lock()
		stale := entry.lastSeen.Before(cutoff)
		entry.mu.Unlock()
		if stale {
			delete(m.sessions, id)
		}
	}
}

// evictLocked removes least recently used sessions until the cap holds,
// never touching keep. Caller holds the map write lock.
func (m *Memory) evictLocked(keep string) {
	for len(m.sessions) > m.maxSessions {
		var (
			oldestID string
			oldest   time.Time
			found    bool
		)
		for id, entry := range m.sessions {
			if id == keep {
				continue
			}
			entry.mu.Lock()
			seen := entry.lastSeen
			entry.mu.Unlock()
			if !found || seen.Before(oldest) {
				oldestID, oldest, found = id, seen, true
			}
		}
		if !found {
			return
		}
		delete(m.sessions, oldestID)
	}
}
