// Package sessionstore provides interview.Store implementations: a GORM
// table for durable state and a bounded in-memory LRU.
package sessionstore

import (
	"encoding/json"
	"fmt"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
)

func encode(s *interview.State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: encode %s: %w", s.SessionID, err)
	}
	return data, nil
}

// decode returns an error wrapping interview.ErrCorrupt for anything that
// is not a well-formed session.
func decode(id string, data []byte) (*interview.State, error) {
	var s interview.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("sessionstore: decode %s: %w: %v", id, interview.ErrCorrupt, err)
	}
	if !s.Stage.Valid() {
		return nil, fmt.Errorf("sessionstore: decode %s: %w: unknown stage %q", id, interview.ErrCorrupt, s.Stage)
	}
	if s.QuestionIndex < 0 || s.ClarificationAttempts < 0 {
		return nil, fmt.Errorf("sessionstore: decode %s: %w: negative counter", id, interview.ErrCorrupt)
	}
	return &s, nil
}
