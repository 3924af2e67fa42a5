package sessionstore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
)

// DefaultMemorySize is the session capacity of a MemoryStore.
const DefaultMemorySize = 4096

// MemoryStore keeps encoded sessions in a bounded LRU. The least recently
// used session is evicted once the store is full.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

// NewMemoryStore creates a MemoryStore holding up to size sessions.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: memory cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Load implements interview.Store.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*interview.State, error) {
	data, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, nil
	}
	return decode(sessionID, data)
}

// Save implements interview.Store.
func (s *MemoryStore) Save(_ context.Context, st *interview.State) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	s.cache.Add(st.SessionID, data)
	return nil
}

// Delete implements interview.Store.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Remove(sessionID)
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int { return s.cache.Len() }
