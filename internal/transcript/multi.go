package transcript

import (
	"context"
	"fmt"
	"log"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
)

// Store persists a record and returns its final name.
type Store interface {
	Persist(ctx context.Context, rec Record) (string, error)
}

// Mirror receives a copy of a record after the primary store named it.
type Mirror interface {
	Mirror(ctx context.Context, rec Record) error
}

// Multi writes to a primary Store and then to every Mirror. Only primary
// failures are returned; mirror failures are logged.
type Multi struct {
	primary Store
	mirrors []Mirror
}

// NewMulti creates a Multi.
func NewMulti(primary Store, mirrors ...Mirror) (*Multi, error) {
	if primary == nil {
		return nil, fmt.Errorf("transcript: primary store is required")
	}
	return &Multi{primary: primary, mirrors: mirrors}, nil
}

// Persist implements Store.
func (m *Multi) Persist(ctx context.Context, rec Record) (string, error) {
	name, err := m.primary.Persist(ctx, rec)
	if err != nil {
		return "", err
	}
	rec.Name = name
	for _, mirror := range m.mirrors {
		if err := mirror.Mirror(ctx, rec); err != nil {
			log.Printf("transcript: mirror %s: %v", name, err)
		}
	}
	return name, nil
}

// SessionPersister adapts a Store to interview.Persister.
type SessionPersister struct {
	store Store
}

// NewSessionPersister creates a SessionPersister.
func NewSessionPersister(store Store) *SessionPersister {
	return &SessionPersister{store: store}
}

// Persist implements interview.Persister.
func (p *SessionPersister) Persist(ctx context.Context, s *interview.State) (string, error) {
	return p.store.Persist(ctx, FromState(s))
}
