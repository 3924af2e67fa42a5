package interview

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/keyword"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/metrics"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/oracle"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/questions"
)

// Oracle is the language-model surface the machine needs. Implementations
// must never fail: fallbacks are their responsibility.
type Oracle interface {
	Translate(ctx context.Context, text, language string) string
	Classify(ctx context.Context, question, answer string, prior []oracle.QA) oracle.Verdict
	Rephrase(ctx context.Context, question, answer string) string
}

// Persister archives a completed session and returns the record name.
type Persister interface {
	Persist(ctx context.Context, s *State) (string, error)
}

// Picker chooses an index in [0, n). Inject a fixed Picker for
// deterministic phrase selection in tests.
type Picker interface {
	Intn(n int) int
}

// LanguagePolicy decides what happens when a language choice is not
// recognised.
type LanguagePolicy string

const (
	// PolicyStrict re-prompts with the option list.
	PolicyStrict LanguagePolicy = "strict"
	// PolicyLenient falls back to English and continues.
	PolicyLenient LanguagePolicy = "lenient"
)

// DefaultMaxClarifications is how many times an incomplete answer is
// re-asked before it is accepted anyway.
const DefaultMaxClarifications = 1

// Reply is the outward message for one turn.
type Reply struct {
	Text            string
	LanguageOptions []string
	Stage           Stage
	TranscriptName  string
}

// Render returns Text followed by the language options as a numbered list,
// for transports that cannot show buttons.
func (r Reply) Render() string {
	if len(r.LanguageOptions) == 0 {
		return r.Text
	}
	return r.Text + "\n\n" + numbered(r.LanguageOptions)
}

// Machine computes conversation transitions. It holds no per-session data
// and is safe for concurrent use when its Oracle, Persister and Picker are.
type Machine struct {
	bank              *questions.Bank
	gate              *keyword.Gate
	oracle            Oracle
	persister         Persister
	picker            Picker
	now               func() time.Time
	languages         []string
	policy            LanguagePolicy
	maxClarifications int
	includeContext    bool
	recorder          *metrics.Recorder
}

// MachineOpts holds parameters for creating a Machine.
type MachineOpts struct {
	Bank              *questions.Bank
	Gate              *keyword.Gate // defaults to keyword.New(keyword.Opts{})
	Oracle            Oracle
	Persister         Persister // optional; completed sessions are not archived without one
	Picker            Picker    // defaults to math/rand
	Now               func() time.Time
	Languages         []string
	LanguagePolicy    LanguagePolicy // defaults to PolicyStrict
	MaxClarifications int            // defaults to DefaultMaxClarifications
	IncludeContext    bool
	Recorder          *metrics.Recorder
}

// NewMachine creates a Machine.
func NewMachine(opts MachineOpts) (*Machine, error) {
	if opts.Bank == nil {
		return nil, fmt.Errorf("interview: bank is required")
	}
	if opts.Oracle == nil {
		return nil, fmt.Errorf("interview: oracle is required")
	}
	if len(opts.Languages) == 0 {
		return nil, fmt.Errorf("interview: languages is required")
	}
	if opts.MaxClarifications < 0 {
		return nil, fmt.Errorf("interview: max clarifications must not be negative")
	}
	policy := opts.LanguagePolicy
	if policy == "" {
		policy = PolicyStrict
	}
	if policy != PolicyStrict && policy != PolicyLenient {
		return nil, fmt.Errorf("interview: unknown language policy %q", policy)
	}
	m := &Machine{
		bank:              opts.Bank,
		gate:              opts.Gate,
		oracle:            opts.Oracle,
		persister:         opts.Persister,
		picker:            opts.Picker,
		now:               opts.Now,
		languages:         append([]string(nil), opts.Languages...),
		policy:            policy,
		maxClarifications: opts.MaxClarifications,
		includeContext:    opts.IncludeContext,
		recorder:          opts.Recorder,
	}
	if m.gate == nil {
		m.gate = keyword.New(keyword.Opts{})
	}
	if m.picker == nil {
		m.picker = globalRand{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.maxClarifications == 0 {
		m.maxClarifications = DefaultMaxClarifications
	}
	return m, nil
}

// Languages returns the supported language names in display order.
func (m *Machine) Languages() []string {
	return append([]string(nil), m.languages...)
}

// Step applies one inbound message to prev and returns the next state and
// the reply. prev is never modified; a nil prev starts a new session.
func (m *Machine) Step(ctx context.Context, prev *State, message string) (*State, Reply) {
	msg := strings.TrimSpace(message)
	now := m.now()

	st := prev.Clone()
	switch {
	case st == nil || !st.Stage.Valid():
		id := ""
		if st != nil {
			id = st.SessionID
		}
		st = NewState(id, now)
	case st.Stage != StageAwaitingRestartConfirm && keyword.IsRestart(msg):
		st = NewState(st.SessionID, now)
	}
	st.UpdatedAt = now

	var reply Reply
	switch st.Stage {
	case StageNotStarted:
		reply = m.greet(st)
	case StageAwaitingLanguage:
		reply = m.chooseLanguage(ctx, st, msg)
	case StageAwaitingReady:
		reply = m.confirmReady(ctx, st, msg)
	case StageCollecting:
		reply = m.collect(ctx, st, msg)
	case StageComplete:
		st.Stage = StageAwaitingRestartConfirm
		reply = Reply{Text: m.tr(ctx, st, restartPrompt)}
	case StageAwaitingRestartConfirm:
		reply = m.confirmRestart(ctx, st, msg, now)
	}
	reply.Stage = st.Stage
	return st, reply
}

func (m *Machine) greet(st *State) Reply {
	st.Stage = StageAwaitingLanguage
	return Reply{Text: greeting, LanguageOptions: m.Languages()}
}

func (m *Machine) chooseLanguage(ctx context.Context, st *State, msg string) Reply {
	lang, ok := matchLanguage(msg, m.languages)
	if !ok {
		if m.policy == PolicyStrict {
			return Reply{Text: languageRetry, LanguageOptions: m.Languages()}
		}
		lang = DefaultLanguage
	}
	st.Language = lang
	st.Stage = StageAwaitingReady
	return Reply{Text: m.tr(ctx, st, intro)}
}

func (m *Machine) confirmReady(ctx context.Context, st *State, msg string) Reply {
	if !m.gate.IsAffirmative(msg, st.Language) {
		return Reply{Text: m.tr(ctx, st, readyNudge)}
	}
	st.Stage = StageCollecting
	st.QuestionIndex = 0
	st.Answers = nil
	st.ClarificationAttempts = 0
	q, _ := m.bank.At(0)
	return Reply{Text: m.tr(ctx, st, q)}
}

func (m *Machine) collect(ctx context.Context, st *State, msg string) Reply {
	i := st.QuestionIndex
	q, ok := m.bank.At(i)
	if !ok {
		// Index past the bank means the bank shrank under a stored session.
		st.Stage = StageComplete
		return m.complete(ctx, st)
	}

	switch {
	case msg == "":
		return Reply{Text: m.tr(ctx, st, q)}
	case keyword.IsSkip(msg):
		st.record(i, q, SkipSentinel)
		return m.accept(ctx, st)
	case m.gate.ContainsFlagged(msg):
		return Reply{Text: m.tr(ctx, st, pick(m.picker, deflections))}
	}

	st.record(i, q, msg)
	var prior []oracle.QA
	if m.includeContext {
		prior = make([]oracle.QA, 0, i)
		for _, a := range st.Answers[:i] {
			prior = append(prior, oracle.QA{Question: a.Question, Answer: a.Text})
		}
	}
	verdict := m.oracle.Classify(ctx, q, msg, prior)
	if verdict == oracle.Incomplete && st.ClarificationAttempts < m.maxClarifications {
		st.ClarificationAttempts++
		return Reply{Text: m.tr(ctx, st, m.oracle.Rephrase(ctx, q, msg))}
	}
	return m.accept(ctx, st)
}

// accept moves past the current question, finishing the interview after the
// last one.
func (m *Machine) accept(ctx context.Context, st *State) Reply {
	st.ClarificationAttempts = 0
	if st.QuestionIndex >= m.bank.Count()-1 {
		st.Stage = StageComplete
		return m.complete(ctx, st)
	}
	st.QuestionIndex++
	next, _ := m.bank.At(st.QuestionIndex)
	text := m.tr(ctx, st, pick(m.picker, encouragements)) + "\n\n" + m.tr(ctx, st, next)
	return Reply{Text: text}
}

func (m *Machine) complete(ctx context.Context, st *State) Reply {
	if m.persister != nil {
		name, err := m.persister.Persist(ctx, st)
		if err != nil {
			log.Printf("interview: persist transcript for session %s: %v", st.SessionID, err)
			m.recorder.IncTranscript("error")
		} else {
			st.TranscriptName = name
			m.recorder.IncTranscript("ok")
		}
	}
	return Reply{Text: m.summary(ctx, st), TranscriptName: st.TranscriptName}
}

// summary lists every question with its answer. Answers are shown as given.
func (m *Machine) summary(ctx context.Context, st *State) string {
	var b strings.Builder
	b.WriteString(m.tr(ctx, st, summaryHeader))
	b.WriteByte('\n')
	for i := 0; i < m.bank.Count(); i++ {
		q, _ := m.bank.At(i)
		a := "(no answer)"
		if i < len(st.Answers) && st.Answers[i].Text != "" {
			a = st.Answers[i].Text
		}
		fmt.Fprintf(&b, "\n**Q%d: %s**\n➡️ %s\n", i+1, m.tr(ctx, st, q), a)
	}
	if st.TranscriptName != "" {
		fmt.Fprintf(&b, "\n🗂️ %s %s\n", m.tr(ctx, st, savedAs), st.TranscriptName)
	}
	b.WriteByte('\n')
	b.WriteString(m.tr(ctx, st, uploadHint))
	return b.String()
}

func (m *Machine) confirmRestart(ctx context.Context, st *State, msg string, now time.Time) Reply {
	if m.gate.IsAffirmative(msg, DefaultLanguage) || keyword.IsRestart(msg) {
		fresh := NewState(st.SessionID, now)
		*st = *fresh
		return m.greet(st)
	}
	st.Stage = StageComplete
	return Reply{Text: m.tr(ctx, st, noReset)}
}

func (m *Machine) tr(ctx context.Context, st *State, text string) string {
	return m.oracle.Translate(ctx, text, st.Language)
}

// matchLanguage resolves input to one of options by case-insensitive
// equality, a 1-based option number, or an unambiguous substring match in
// either direction.
func matchLanguage(input string, options []string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return "", false
	}
	if n, err := strconv.Atoi(in); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		return "", false
	}
	for _, o := range options {
		if strings.ToLower(o) == in {
			return o, true
		}
	}
	var found []string
	for _, o := range options {
		lo := strings.ToLower(o)
		if strings.Contains(lo, in) || strings.Contains(in, lo) {
			found = append(found, o)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return "", false
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }
