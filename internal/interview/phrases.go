package interview

import (
	"fmt"
	"strings"
)

// DefaultLanguage is the session language until the user picks another.
const DefaultLanguage = "English"

const (
	greeting = "🧠 Hi! I'm the Renoir Case Study Chatbot. What language would you like to use?"

	languageRetry = "Sorry, I didn't recognise that language. Please pick one of the options below, " +
		"either by name or by its number."

	intro = "Welcome! I'm here to guide you through a few questions so we can build a great case study " +
		"around your project. If I need more detail at any point, I'll ask, so just answer as fully as you can. " +
		"Ready? Reply \"OK\" or \"Yes\" and let's get started!"

	readyNudge = "Whenever you're ready, just reply \"OK\" or \"Yes\" and I'll ask the first question."

	restartPrompt = "Your case study is already complete. Would you like to start a new case study? " +
		"Reply \"Yes\" to start over."

	noReset = "No problem, nothing was reset. Your case study is saved, and you can still upload client images below. 📷"

	summaryHeader = "📋 **Your Case Study Summary:**"
	savedAs       = "Saved as"
	uploadHint    = "Thanks again, you're all done! If you'd like to upload client images now, you can do so below. 📷"
)

// encouragements are shown between accepted answers.
var encouragements = []string{
	"Great, thanks!",
	"Perfect, that's really helpful.",
	"Brilliant, got it.",
	"Thanks, that's great detail.",
	"Excellent, let's keep going.",
	"Nice one, on to the next question.",
}

// deflections answer flagged content without recording it.
var deflections = []string{
	"Ha! As much as I'd love to hear about that, let's keep this about the project. 😄",
	"That sounds like a story for another day! Could you answer the question about the project?",
	"I'm fairly sure that wasn't part of the engagement. 😉 Let's try that question again.",
	"Tempting as it is to go down that path, let's stick to the case study!",
}

// pick returns a phrase chosen by p.
func pick(p Picker, phrases []string) string {
	i := p.Intn(len(phrases))
	if i < 0 || i >= len(phrases) {
		i = 0
	}
	return phrases[i]
}

// numbered renders options as a 1-based list, one per line.
func numbered(options []string) string {
	var b strings.Builder
	for i, o := range options {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, o)
	}
	return b.String()
}
