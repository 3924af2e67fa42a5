// Package questions holds the ordered interview prompts.
package questions

import (
	"fmt"
	"strings"
)

// defaultQuestions are the canonical case study prompts, asked in order.
var defaultQuestions = []string{
	"To start off with can you tell me the client's name, their industry and location?",
	"What were the main challenges or problems the client was facing before the project / were identified from the analysis? Try to cover things like process issues, cultural challenges, or operational bottlenecks.",
	"Were there any measurable goals committed for this project / what did we commit to, in terms of a business case, following on from the analysis (if one was carried out)?",
	"What were the main initiatives or tools introduced during the project? Please list at least 3 key initiatives.",
	"Let's capture the results! Please share measurable gains such as throughput improvement, overtime reduction, or other financial or operational results.",
	"Do you have any client feedback or quotes we can include? Please include the client's name and role if possible.",
	"Finally, how will the client sustain these improvements after the project finishes? What processes, reviews, or systems are being embedded to lock in the gains?",
}

// ContactQuestion captures who is submitting the case study. It is asked
// first when the contact variant is enabled.
const ContactQuestion = "Before we dive in, could you share your name and email address so we can follow up on the case study if needed?"

// Bank is an immutable ordered list of interview questions.
type Bank struct {
	questions []string
}

// New creates a Bank from qs. The slice is copied.
func New(qs []string) (*Bank, error) {
	if len(qs) == 0 {
		return nil, fmt.Errorf("questions: bank must contain at least one question")
	}
	out := make([]string, len(qs))
	for i, q := range qs {
		q = strings.TrimSpace(q)
		if q == "" {
			return nil, fmt.Errorf("questions: question %d is blank", i)
		}
		out[i] = q
	}
	return &Bank{questions: out}, nil
}

// Default returns the canonical seven-question bank.
func Default() *Bank {
	b, _ := New(defaultQuestions)
	return b
}

// WithContact returns a copy of b with ContactQuestion prepended.
func WithContact(b *Bank) *Bank {
	qs := make([]string, 0, len(b.questions)+1)
	qs = append(qs, ContactQuestion)
	qs = append(qs, b.questions...)
	return &Bank{questions: qs}
}

// At returns the question at index i.
func (b *Bank) At(i int) (string, bool) {
	if i < 0 || i >= len(b.questions) {
		return "", false
	}
	return b.questions[i], true
}

// Count returns the number of questions.
func (b *Bank) Count() int {
	return len(b.questions)
}

// All returns a copy of every question in order.
func (b *Bank) All() []string {
	out := make([]string, len(b.questions))
	copy(out, b.questions)
	return out
}
