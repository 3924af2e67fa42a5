package telegraph

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultMaxMessageLen is the platform message limit replies are chunked to.
const DefaultMaxMessageLen = 2000

// ColorInfo is the digest sidebar color.
const ColorInfo = "#2196f3"

var mentionRe = regexp.MustCompile(`<@[^>]+>`)

// stripMentions removes platform user mentions (<@U123>, <@U123|name>,
// <@!123>) so an addressed message reads as the bare answer.
func stripMentions(text string) string {
	return strings.TrimSpace(mentionRe.ReplaceAllString(text, ""))
}

// chunkMessage splits text into pieces of at most maxLen bytes, preferring
// to break at a newline in the second half of each piece and never
// splitting a UTF-8 sequence.
func chunkMessage(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLen
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxLen {
		cut := maxLen
		for cut > 0 && !isRuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxLen
		}
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl >= maxLen/2 {
			chunks = append(chunks, text[:nl])
			text = text[nl+1:]
			continue
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// formatDigest renders the completion digest card.
func formatDigest(count int, since, until time.Time) FormattedEvent {
	noun := "case studies"
	if count == 1 {
		noun = "case study"
	}
	return FormattedEvent{
		Title: "Case study digest",
		Body:  fmt.Sprintf("%d %s completed since %s.", count, noun, since.UTC().Format("Mon 2 Jan 15:04 MST")),
		Color: ColorInfo,
		Fields: []Field{
			{Name: "Completed", Value: fmt.Sprintf("%d", count), Short: true},
			{Name: "Period ending", Value: until.UTC().Format("2006-01-02 15:04 MST"), Short: true},
		},
	}
}
