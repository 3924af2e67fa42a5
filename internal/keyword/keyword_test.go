package keyword

import "testing"

func TestIsAffirmative(t *testing.T) {
	g := New(Opts{})
	tests := []struct {
		name     string
		text     string
		language string
		want     bool
	}{
		{"plain yes", "yes", "English", true},
		{"upper ok", "  OK ", "English", true},
		{"phrase", "Sure, let's go!", "English", true},
		{"curly apostrophe", "let’s go", "English", true},
		{"word inside sentence", "I am ready now", "English", true},
		{"no substring inside word", "book", "English", false},
		{"no", "no thanks", "English", false},
		{"empty", "", "English", false},
		{"spanish", "Sí, vamos", "Spanish", true},
		{"french", "d'accord", "French", true},
		{"chinese substring", "我准备好了", "Chinese (Mandarin)", true},
		{"malay", "jom", "Bahasa Malaysia", true},
		{"language case-insensitive", "oui", "FRENCH", true},
		{"unknown language falls back", "yes", "Klingon", true},
		{"english token not in french set", "yes", "French", false},
		{"hedged sure", "hmm, not sure", "English", false},
		{"not ready", "not ready", "English", false},
		{"don't go yet", "don't go yet", "English", false},
		{"curly don't", "don’t go", "English", false},
		{"wait", "ok wait a sec", "English", false},
		{"spanish negated", "no, todavía no estoy listo", "Spanish", false},
		{"portuguese negated", "ainda não", "Portuguese", false},
		{"french negated", "pas encore prêt", "French", false},
		{"chinese negated", "还没准备好", "Chinese (Mandarin)", false},
		{"indonesian negated", "belum siap", "Bahasa Indonesia", false},
		{"english negation in other language", "not ok", "Spanish", false},
		{"negation inside word ignored", "I know, ready", "English", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsAffirmative(tt.text, tt.language); got != tt.want {
				t.Errorf("IsAffirmative(%q, %q) = %v, want %v", tt.text, tt.language, got, tt.want)
			}
		})
	}
}

func TestIsAffirmative_ExtraTokens(t *testing.T) {
	g := New(Opts{Affirmative: map[string][]string{"english": {"Absolutely"}}})
	if !g.IsAffirmative("absolutely", "English") {
		t.Error("expected configured token to be accepted")
	}
	if !g.IsAffirmative("yes", "English") {
		t.Error("defaults should still apply")
	}
}

func TestContainsFlagged(t *testing.T) {
	g := New(Opts{Flagged: []string{"Wombat"}})
	tests := []struct {
		text string
		want bool
	}{
		{"The client was a KOALA sanctuary", true},
		{"we added hind wings to the forklifts", true},
		{"a wombat ran the project", true},
		{"Acme Corp, retail, USA", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := g.ContainsFlagged(tt.text); got != tt.want {
			t.Errorf("ContainsFlagged(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsRestartAndSkip(t *testing.T) {
	for _, s := range []string{"restart", "NEW", " Start "} {
		if !IsRestart(s) {
			t.Errorf("IsRestart(%q) = false", s)
		}
	}
	for _, s := range []string{"restart please", "renew", ""} {
		if IsRestart(s) {
			t.Errorf("IsRestart(%q) = true", s)
		}
	}
	for _, s := range []string{"skip", "Next"} {
		if !IsSkip(s) {
			t.Errorf("IsSkip(%q) = false", s)
		}
	}
	if IsSkip("next year we grew 20%") {
		t.Error("IsSkip should require the whole message")
	}
}
