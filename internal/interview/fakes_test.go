package interview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/oracle"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/questions"
)

var testLanguages = []string{
	"English",
	"Spanish",
	"Portuguese",
	"Chinese (Mandarin)",
	"Bahasa Indonesia",
	"Bahasa Malaysia",
	"French",
}

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// fakeOracle tags translations with the target language so tests can see
// which texts were translated. Verdicts come from verdicts in order, then
// Complete.
type fakeOracle struct {
	mu            sync.Mutex
	verdicts      []oracle.Verdict
	failTranslate bool
	classified    []classifyCall
	rephrased     int
}

type classifyCall struct {
	question string
	answer   string
	prior    []oracle.QA
}

func (f *fakeOracle) Translate(_ context.Context, text, language string) string {
	if f.failTranslate || oracle.IsEnglish(language) {
		return text
	}
	return "[" + language + "] " + text
}

func (f *fakeOracle) Classify(_ context.Context, question, answer string, prior []oracle.QA) oracle.Verdict {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classified = append(f.classified, classifyCall{question, answer, prior})
	if len(f.verdicts) == 0 {
		return oracle.Complete
	}
	v := f.verdicts[0]
	f.verdicts = f.verdicts[1:]
	return v
}

func (f *fakeOracle) Rephrase(_ context.Context, question, _ string) string {
	f.mu.Lock()
	f.rephrased++
	f.mu.Unlock()
	return "Could you expand a little? " + question
}

func (f *fakeOracle) classifyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.classified)
}

type fakePersister struct {
	mu     sync.Mutex
	saved  []*State
	err    error
	prefix string
}

func (p *fakePersister) Persist(_ context.Context, s *State) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.saved = append(p.saved, s.Clone())
	return p.prefix + "case_study_test.json", nil
}

type fixedPicker int

func (p fixedPicker) Intn(n int) int { return int(p) % n }

func newTestMachine(t *testing.T, mutate func(*MachineOpts)) (*Machine, *fakeOracle, *fakePersister) {
	t.Helper()
	orc := &fakeOracle{}
	per := &fakePersister{}
	opts := MachineOpts{
		Bank:      questions.Default(),
		Oracle:    orc,
		Persister: per,
		Picker:    fixedPicker(0),
		Now:       func() time.Time { return testNow },
		Languages: testLanguages,
	}
	if mutate != nil {
		mutate(&opts)
	}
	m, err := NewMachine(opts)
	require.NoError(t, err)
	return m, orc, per
}

// drive feeds msgs through m starting from st and returns the final state
// and the last reply.
func drive(t *testing.T, m *Machine, st *State, msgs ...string) (*State, Reply) {
	t.Helper()
	var reply Reply
	for _, msg := range msgs {
		st, reply = m.Step(context.Background(), st, msg)
		require.NotNil(t, st)
	}
	return st, reply
}

// memStore is an in-memory Store that holds copies.
type memStore struct {
	mu       sync.Mutex
	states   map[string]*State
	loadErr  error
	saveErr  error
	inflight map[string]int
	overlap  bool
}

func newMemStore() *memStore {
	return &memStore{states: map[string]*State{}, inflight: map[string]int{}}
}

func (s *memStore) Load(_ context.Context, id string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[id]++
	if s.inflight[id] > 1 {
		s.overlap = true
	}
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.states[id].Clone(), nil
}

func (s *memStore) Save(_ context.Context, st *State) error {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[st.SessionID]--
	if s.saveErr != nil {
		return s.saveErr
	}
	s.states[st.SessionID] = st.Clone()
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

var errBoom = errors.New("boom")
