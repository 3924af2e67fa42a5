// Package keyword implements the deterministic keyword classifiers used by
// the interview: readiness confirmation, restart and skip commands, and the
// flagged-content deny-list.
package keyword

import (
	"strings"
	"unicode"
)

// DefaultLanguage is used when a language has no configured token set.
const DefaultLanguage = "English"

// DefaultAffirmatives maps a language name to the tokens accepted as "yes".
var DefaultAffirmatives = map[string][]string{
	"English":            {"yes", "ok", "okay", "ready", "sure", "let's go", "lets go", "yep", "yeah", "go"},
	"Spanish":            {"sí", "si", "ok", "vale", "listo", "lista", "claro", "vamos"},
	"Portuguese":         {"sim", "ok", "pronto", "pronta", "claro", "vamos"},
	"Chinese (Mandarin)": {"好", "是", "可以", "准备好了", "开始", "ok"},
	"Bahasa Indonesia":   {"ya", "ok", "oke", "siap", "baik", "ayo"},
	"Bahasa Malaysia":    {"ya", "ok", "okey", "sedia", "baik", "boleh", "jom"},
	"French":             {"oui", "ok", "d'accord", "prêt", "prête", "allons-y"},
}

// DefaultNegations maps a language name to tokens that turn a reply into a
// refusal or hedge, so "not ready" or "no, not sure" never confirm.
var DefaultNegations = map[string][]string{
	"English":            {"not", "no", "don't", "dont", "nope", "never", "wait", "isn't", "aren't"},
	"Spanish":            {"no", "todavía", "todavia", "nunca", "espera"},
	"Portuguese":         {"não", "nao", "ainda", "nunca", "espera"},
	"Chinese (Mandarin)": {"不", "没", "别", "还没"},
	"Bahasa Indonesia":   {"tidak", "belum", "bukan", "jangan", "nggak", "gak"},
	"Bahasa Malaysia":    {"tidak", "belum", "bukan", "jangan", "tak"},
	"French":             {"pas", "non", "jamais", "attends"},
}

// DefaultFlagged are the absurdity markers that trigger a playful deflection.
var DefaultFlagged = []string{"koala", "hind wings", "unicorn", "flying pig"}

var (
	restartWords = []string{"restart", "new", "start"}
	skipWords    = []string{"skip", "next"}
)

// Gate classifies user input against fixed keyword sets. A Gate is safe for
// concurrent use once built.
type Gate struct {
	affirmative map[string][]string
	negation    map[string][]string
	flagged     []string
}

// Opts holds parameters for building a Gate. Extra entries are merged into
// the defaults.
type Opts struct {
	Affirmative map[string][]string
	Flagged     []string
}

// New builds a Gate from the default sets plus opts.
func New(opts Opts) *Gate {
	g := &Gate{
		affirmative: make(map[string][]string),
		negation:    make(map[string][]string),
	}
	for lang, tokens := range DefaultAffirmatives {
		g.affirmative[foldKey(lang)] = normalizeAll(tokens)
	}
	for lang, tokens := range DefaultNegations {
		g.negation[foldKey(lang)] = normalizeAll(tokens)
	}
	for lang, tokens := range opts.Affirmative {
		key := foldKey(lang)
		g.affirmative[key] = append(g.affirmative[key], normalizeAll(tokens)...)
	}
	g.flagged = normalizeAll(DefaultFlagged)
	g.flagged = append(g.flagged, normalizeAll(opts.Flagged)...)
	return g
}

// IsAffirmative reports whether text confirms, using the token set for
// language and falling back to English when the language has none. Any
// negation token, in language or in English, makes the reply a refusal.
func (g *Gate) IsAffirmative(text, language string) bool {
	tokens, ok := g.affirmative[foldKey(language)]
	if !ok || len(tokens) == 0 {
		tokens = g.affirmative[foldKey(DefaultLanguage)]
	}
	input := normalize(text)
	if input == "" || g.negated(input, language) {
		return false
	}
	for _, tok := range tokens {
		if matches(input, tok) {
			return true
		}
	}
	return false
}

func (g *Gate) negated(input, language string) bool {
	sets := [][]string{g.negation[foldKey(DefaultLanguage)]}
	if key := foldKey(language); key != foldKey(DefaultLanguage) {
		sets = append(sets, g.negation[key])
	}
	for _, tokens := range sets {
		for _, tok := range tokens {
			if matches(input, tok) {
				return true
			}
		}
	}
	return false
}

// ContainsFlagged reports whether text mentions any deny-listed marker.
func (g *Gate) ContainsFlagged(text string) bool {
	input := normalize(text)
	if input == "" {
		return false
	}
	for _, marker := range g.flagged {
		if marker != "" && strings.Contains(input, marker) {
			return true
		}
	}
	return false
}

// IsRestart reports whether text is a restart command.
func IsRestart(text string) bool {
	return equalsAny(text, restartWords)
}

// IsSkip reports whether text asks to skip the current question.
func IsSkip(text string) bool {
	return equalsAny(text, skipWords)
}

func equalsAny(text string, words []string) bool {
	input := normalize(text)
	for _, w := range words {
		if input == w {
			return true
		}
	}
	return false
}

// matches reports whether tok is the whole input or appears inside it as a
// whole word or phrase. Han-script tokens match as plain substrings since
// those languages do not separate words with spaces.
func matches(input, tok string) bool {
	if tok == "" {
		return false
	}
	if input == tok {
		return true
	}
	if hasHan(tok) {
		return strings.Contains(input, tok)
	}
	return strings.Contains(" "+wordsOnly(input)+" ", " "+wordsOnly(tok)+" ")
}

// wordsOnly replaces punctuation (other than apostrophes and hyphens that
// appear inside tokens) with spaces and collapses whitespace.
func wordsOnly(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func foldKey(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
