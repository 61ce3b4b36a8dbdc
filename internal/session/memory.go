package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"easycart/internal/cart"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when no Redis address is
// configured, and by tests. Values are stored as JSON so behavior matches
// the Redis implementation, TTL included.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
}

// NewMemoryStore returns an empty in-process session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*cart.Data, error) {
	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if ok && !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var data cart.Data
	if err := json.Unmarshal(entry.data, &data); err != nil {
		return nil, err
	}
	if data.Items == nil {
		data.Items = make(map[string]cart.Entry)
	}
	return &data, nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID string, data *cart.Data) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	entry := memoryEntry{data: b}
	if s.ttl > 0 {
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	s.mu.Lock()
	s.sessions[sessionID] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
