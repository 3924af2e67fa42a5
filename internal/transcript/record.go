// Package transcript persists completed case studies as JSON records, with
// optional mirrors into the database index and a GitHub repository.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
)

// Record is one completed case study.
type Record struct {
	Name        string    `json:"name"`
	SessionID   string    `json:"session_id"`
	Language    string    `json:"language"`
	CompletedAt time.Time `json:"completed_at"`
	Answers     Answers   `json:"answers"`
}

// QA is one question with its answer.
type QA struct {
	Question string
	Answer   string
}

// Answers encodes as a JSON object keyed by question, in question order.
type Answers []QA

// MarshalJSON implements json.Marshaler.
func (a Answers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, qa := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(qa.Question)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(qa.Answer)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping key order.
func (a *Answers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("transcript: answers must be a JSON object")
	}
	var out Answers
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("transcript: answers key is not a string")
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("transcript: answer for %q: %w", key, err)
		}
		out = append(out, QA{Question: key, Answer: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = out
	return nil
}

// Encode renders r as indented JSON with a trailing newline.
func Encode(r Record) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("transcript: encode: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("transcript: decode: %w", err)
	}
	return r, nil
}

// FromState builds a Record from a completed session. The completion time
// is the session's last update.
func FromState(s *interview.State) Record {
	completed := s.UpdatedAt
	if completed.IsZero() {
		completed = time.Now()
	}
	answers := make(Answers, 0, len(s.Answers))
	for _, a := range s.Answers {
		answers = append(answers, QA{Question: a.Question, Answer: a.Text})
	}
	return Record{
		SessionID:   s.SessionID,
		Language:    s.Language,
		CompletedAt: completed.UTC(),
		Answers:     answers,
	}
}
