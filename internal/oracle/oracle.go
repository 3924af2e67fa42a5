// Package oracle wraps an external language model behind the three calls the
// interview needs: translation, completeness classification and
// clarification rephrasing. Every call is a single-turn request with no
// memory; timeouts, retries and fallbacks live here so callers never see an
// oracle error.
package oracle

import (
	"context"
	"fmt"
	"strings"
)

// Client is the provider contract: one prompt in, one text response out.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

// Verdict is the completeness judgment for an answer.
type Verdict string

const (
	Complete   Verdict = "complete"
	Incomplete Verdict = "incomplete"
)

// QA is a question with its recorded answer, used as classification context.
type QA struct {
	Question string
	Answer   string
}

// RephraseMode selects how clarification re-asks are produced.
type RephraseMode string

const (
	RephraseOracle   RephraseMode = "oracle"
	RephraseTemplate RephraseMode = "template"
)

// ParseVerdict normalizes a free-form oracle response. Only the literal token
// "incomplete" yields Incomplete; anything else is Complete so a confused
// oracle can never trap a user on one question.
func ParseVerdict(resp string) Verdict {
	s := strings.ToLower(strings.TrimSpace(resp))
	s = strings.Trim(s, " \t\r\n.!\"'`*")
	if s == string(Incomplete) {
		return Incomplete
	}
	return Complete
}

// IsEnglish reports whether language needs no translation.
func IsEnglish(language string) bool {
	l := strings.TrimSpace(language)
	return l == "" || strings.EqualFold(l, "English")
}

func translatePrompt(text, language string) string {
	return fmt.Sprintf("Translate the following into %s. Return only the translation. "+
		"Keep emoji, line breaks, numbering and markdown formatting unchanged.\n\n%s", language, text)
}

func classifyPrompt(question, answer string, prior []QA) string {
	var b strings.Builder
	b.WriteString("You are reviewing answers collected for a client case study.\n")
	if len(prior) > 0 {
		b.WriteString("Answers given so far:\n")
		for _, qa := range prior {
			fmt.Fprintf(&b, "- Q: %s\n  A: %s\n", qa.Question, qa.Answer)
		}
	}
	fmt.Fprintf(&b, "Question: %s\nAnswer: %s\n", question, answer)
	b.WriteString("Does the answer address the question with enough detail to write that part of the case study? " +
		"Reply with exactly one word: complete or incomplete.")
	return b.String()
}

func rephrasePrompt(question, answer string) string {
	return fmt.Sprintf("A consultant answered an interview question too briefly.\n"+
		"Original question: %s\nTheir answer: %s\n"+
		"Write a short, friendly message asking for more detail, then repeat the original question "+
		"using its exact wording. Return only the message.", question, answer)
}

// TemplateRephrase is the local clarification re-ask. It always embeds the
// exact question text.
func TemplateRephrase(question string) string {
	return "Thanks! Could you add a bit more detail? " + question
}
