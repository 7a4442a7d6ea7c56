package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for single-instance deployments and
// tests. Sessions expire lazily on access.
type MemoryStore struct {
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	payload []byte
	savedAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds an in-memory store. A non-positive ttl keeps
// sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, sessions: make(map[string]memoryEntry)}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if m.ttl > 0 && time.Since(entry.savedAt) > m.ttl {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	var s Session
	if err := json.Unmarshal(entry.payload, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save implements Store. Sessions are stored serialized so callers cannot
// mutate stored state through retained pointers.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[s.ID] = memoryEntry{payload: payload, savedAt: time.Now()}
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
