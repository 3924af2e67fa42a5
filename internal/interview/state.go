// Package interview implements the case study conversation: a per-session
// state machine that walks a user through language selection, a readiness
// check and the question bank, and a Service that loads, steps and saves
// session state one turn at a time.
package interview

import (
	"time"
)

// Stage is the single discriminated position of a session in the
// conversation.
type Stage string

const (
	StageNotStarted             Stage = "not_started"
	StageAwaitingLanguage       Stage = "awaiting_language"
	StageAwaitingReady          Stage = "awaiting_ready"
	StageCollecting             Stage = "collecting"
	StageComplete               Stage = "complete"
	StageAwaitingRestartConfirm Stage = "awaiting_restart_confirm"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageNotStarted, StageAwaitingLanguage, StageAwaitingReady,
		StageCollecting, StageComplete, StageAwaitingRestartConfirm:
		return true
	}
	return false
}

// SkipSentinel is recorded in place of the literal skip command.
const SkipSentinel = "(User chose to skip this question)"

// Answer is one recorded response, kept with the question it answers.
type Answer struct {
	Question string `json:"question"`
	Text     string `json:"text"`
}

// State is everything known about one session. Slot i of Answers holds the
// answer to question i.
type State struct {
	SessionID             string    `json:"session_id"`
	Stage                 Stage     `json:"stage"`
	Language              string    `json:"language"`
	QuestionIndex         int       `json:"question_index"`
	Answers               []Answer  `json:"answers,omitempty"`
	ClarificationAttempts int       `json:"clarification_attempts"`
	TranscriptName        string    `json:"transcript_name,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NewState returns a fresh session in StageNotStarted.
func NewState(sessionID string, now time.Time) *State {
	return &State{
		SessionID: sessionID,
		Stage:     StageNotStarted,
		Language:  DefaultLanguage,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of s. Clone of nil is nil.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	if s.Answers != nil {
		c.Answers = make([]Answer, len(s.Answers))
		copy(c.Answers, s.Answers)
	}
	return &c
}

// record stores text as the answer to question i, overwriting any earlier
// attempt at the same question.
func (s *State) record(i int, question, text string) {
	for len(s.Answers) <= i {
		s.Answers = append(s.Answers, Answer{})
	}
	s.Answers[i] = Answer{Question: question, Text: text}
}
