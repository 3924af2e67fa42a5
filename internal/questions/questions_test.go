package questions

import (
	"strings"
	"testing"
)

func TestDefault_SevenQuestions(t *testing.T) {
	b := Default()
	if b.Count() != 7 {
		t.Fatalf("Count() = %d, want 7", b.Count())
	}
	q, ok := b.At(0)
	if !ok || !strings.Contains(q, "client's name") {
		t.Errorf("At(0) = %q, %v", q, ok)
	}
	q, ok = b.At(6)
	if !ok || !strings.HasPrefix(q, "Finally") {
		t.Errorf("At(6) = %q, %v", q, ok)
	}
}

func TestAt_OutOfRange(t *testing.T) {
	b := Default()
	for _, i := range []int{-1, 7, 100} {
		if _, ok := b.At(i); ok {
			t.Errorf("At(%d) ok = true, want false", i)
		}
	}
}

func TestWithContact_Prepends(t *testing.T) {
	base := Default()
	b := WithContact(base)
	if b.Count() != 8 {
		t.Fatalf("Count() = %d, want 8", b.Count())
	}
	if q, _ := b.At(0); q != ContactQuestion {
		t.Errorf("At(0) = %q, want contact question", q)
	}
	first, _ := base.At(0)
	if q, _ := b.At(1); q != first {
		t.Errorf("At(1) = %q, want %q", q, first)
	}
	if base.Count() != 7 {
		t.Errorf("base bank mutated: Count() = %d", base.Count())
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		qs      []string
		wantErr bool
	}{
		{"empty", nil, true},
		{"blank entry", []string{"one", "  "}, true},
		{"trimmed", []string{"  one  ", "two"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.qs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if q, _ := b.At(0); q != "one" {
					t.Errorf("At(0) = %q, want trimmed %q", q, "one")
				}
			}
		})
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	b := Default()
	all := b.All()
	all[0] = "mutated"
	if q, _ := b.At(0); q == "mutated" {
		t.Error("All() exposed internal slice")
	}
}
