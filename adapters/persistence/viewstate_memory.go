package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/encorestage/encore/internal/application/service"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryViewStore is the single-process ViewStore used for local runs and
// tests. Entries expire after ttl of inactivity.
type MemoryViewStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     service.Clock
}

func NewMemoryViewStore(ttl time.Duration, now service.Clock) *MemoryViewStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryViewStore{entries: map[string]memoryEntry{}, ttl: ttl, now: now}
}

func (s *MemoryViewStore) Put(_ context.Context, key string, state any) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal view state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{data: b, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryViewStore) load(key string) ([]byte, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().After(e.expires) {
		delete(s.entries, key)
		return nil, false
	}
	return e.data, true
}

func (s *MemoryViewStore) Get(_ context.Context, key string, state any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.load(key)
	if !ok {
		return service.ErrViewGone
	}
	resetState(state)
	return json.Unmarshal(b, state)
}

func (s *MemoryViewStore) Update(_ context.Context, key string, state any, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.load(key)
	if !ok {
		return service.ErrViewGone
	}
	resetState(state)
	if err := json.Unmarshal(b, state); err != nil {
		return fmt.Errorf("unmarshal view state: %w", err)
	}
	if err := fn(); err != nil {
		return err
	}
	out, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal view state: %w", err)
	}
	s.entries[key] = memoryEntry{data: out, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryViewStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
