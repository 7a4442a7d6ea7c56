// Package session persists conversation state between turns: the running
// message history plus any suspension awaiting human confirmation.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/casamind/casamind/pkg/types"
)

// ErrNotFound is returned when no session exists under the given ID.
var ErrNotFound = errors.New("session: not found")

// Session is the persisted state of one conversation.
type Session struct {
	ID      string          `json:"session_id"`
	History []types.Message `json:"history"`

	// Suspension is the serialized pending-confirmation state, nil when
	// the conversation is not suspended. The graph package owns its shape.
	Suspension json.RawMessage `json:"suspension,omitempty"`

	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Suspended reports whether the session is waiting for a confirmation
// reply.
func (s *Session) Suspended() bool { return len(s.Suspension) > 0 }

// Store persists sessions. Implementations must be safe for concurrent
// use.
type Store interface {
	// Load returns the session under id, or ErrNotFound.
	Load(ctx context.Context, id string) (*Session, error)
	// Save writes the session, refreshing its TTL where applicable.
	Save(ctx context.Context, s *Session) error
	// Delete removes the session. Deleting a missing session is not an
	// error.
	Delete(ctx context.Context, id string) error
	// Close releases the store's resources.
	Close() error
}

// NewSession builds an empty session with timestamps set.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, StartedAt: now, LastActivity: now}
}

// KeyedMutex serializes turns per session so two concurrent requests for
// the same conversation cannot interleave their state writes.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex builds an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
