package strutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateUTF8Preview(t *testing.T) {
	// The inbox listing truncates message bodies to a byte budget; the
	// cut must never land inside a multi-byte character.
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"empty input", "", 16, ""},
		{"zero budget", "hello", 0, ""},
		{"ascii cut", "data hash validated against your entry", 9, "data hash"},
		{"fits whole", "short", 64, "short"},
		{"multibyte backs off", "héllo", 2, "h"},
		{"exact rune boundary", "abé", 4, "abé"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateUTF8(tc.in, tc.max)
			if got != tc.want {
				t.Fatalf("TruncateUTF8(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestTruncateUTF8NeverSplitsRunes(t *testing.T) {
	body := strings.Repeat("résumé 📝 ", 80)
	for budget := 1; budget <= len(body); budget += 5 {
		got := TruncateUTF8(body, budget)
		if len(got) > budget {
			t.Fatalf("budget %d exceeded: len = %d", budget, len(got))
		}
		if !utf8.ValidString(got) {
			t.Fatalf("budget %d produced invalid UTF-8: %q", budget, got)
		}
		if !strings.HasPrefix(body, got) {
			t.Fatalf("budget %d result is not a prefix", budget)
		}
	}
}
