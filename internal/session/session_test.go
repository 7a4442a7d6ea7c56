package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/casamind/casamind/pkg/types"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	s := NewSession("abc")
	s.History = append(s.History, types.UserMessage("turn on the lamp"))
	s.Suspension = json.RawMessage(`{"pending":true}`)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.History) != 1 || got.History[0].Content != "turn on the lamp" {
		t.Errorf("history = %+v", got.History)
	}
	if !got.Suspended() {
		t.Error("expected session to be suspended")
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ctx := context.Background()
	if err := store.Save(ctx, NewSession("abc")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting again is fine.
	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ctx := context.Background()
	s := NewSession("abc")
	s.History = []types.Message{types.UserMessage("one")}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Mutating the saved or loaded session must not leak into the store.
	s.History[0].Content = "mutated"
	got, err := store.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.History[0].Content != "one" {
		t.Errorf("stored session was mutated through caller pointer: %q", got.History[0].Content)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Nanosecond)
	ctx := context.Background()
	if err := store.Save(ctx, NewSession("abc")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := store.Load(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	t.Parallel()

	km := NewKeyedMutex()
	var counter int
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("same")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}
