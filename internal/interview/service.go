package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/metrics"
)

// ErrCorrupt marks stored session state that cannot be decoded. The Service
// treats it like a missing session.
var ErrCorrupt = errors.New("interview: corrupt session state")

// Store persists session state between turns. Load returns (nil, nil) when
// no session exists.
type Store interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, s *State) error
	Delete(ctx context.Context, sessionID string) error
}

// Service runs turns against stored sessions. Turns for one session are
// serialized; distinct sessions proceed independently.
type Service struct {
	machine  *Machine
	store    Store
	recorder *metrics.Recorder

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// ServiceOpts holds parameters for creating a Service.
type ServiceOpts struct {
	Machine  *Machine
	Store    Store
	Recorder *metrics.Recorder
}

// NewService creates a Service.
func NewService(opts ServiceOpts) (*Service, error) {
	if opts.Machine == nil {
		return nil, fmt.Errorf("interview: machine is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("interview: store is required")
	}
	return &Service{
		machine:  opts.Machine,
		store:    opts.Store,
		recorder: opts.Recorder,
		locks:    make(map[string]*sessionLock),
	}, nil
}

// Machine returns the underlying state machine.
func (s *Service) Machine() *Machine { return s.machine }

// Handle processes one inbound message for sessionID: load, step, save.
func (s *Service) Handle(ctx context.Context, sessionID, message string) (Reply, error) {
	if sessionID == "" {
		return Reply{}, fmt.Errorf("interview: session id is required")
	}
	unlock := s.lock(sessionID)
	defer unlock()

	prev, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return Reply{}, fmt.Errorf("interview: load session %s: %w", sessionID, err)
		}
		log.Printf("interview: discarding corrupt session %s: %v", sessionID, err)
		prev = nil
	}
	if prev != nil && prev.Stage == StageCollecting && prev.QuestionIndex >= s.machine.bank.Count() {
		log.Printf("interview: session %s question index %d out of range, restarting", sessionID, prev.QuestionIndex)
		prev = nil
	}

	next, reply := s.machine.Step(ctx, prev, message)
	next.SessionID = sessionID
	if err := s.store.Save(ctx, next); err != nil {
		return Reply{}, fmt.Errorf("interview: save session %s: %w", sessionID, err)
	}
	s.recorder.IncTurn(string(next.Stage))
	return reply, nil
}

// Reset discards any stored state for sessionID.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("interview: reset session %s: %w", sessionID, err)
	}
	return nil
}

// lock acquires the per-session mutex and returns its release func. Entries
// are dropped from the map once no turn holds or waits on them.
func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}
