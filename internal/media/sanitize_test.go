package media

import (
	"strings"
	"testing"
)

func TestSanitizeTitle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain title unchanged", "My Video", "My Video"},
		{"illegal characters stripped", `a\b/c:d*e?f"g<h>i|j`, "abcdefghij"},
		{"surrounding whitespace trimmed", "  spaced out  ", "spaced out"},
		{"empty input", "", ""},
		{"all illegal input", `\/:*?"<>|`, ""},
		{"path traversal collapsed", "../../etc/passwd", "....etcpasswd"},
		{"unicode preserved", "日本語タイトル 🎵", "日本語タイトル 🎵"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeTitle(tt.title); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSanitizeTitle_Truncates(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 500)
	got := SanitizeTitle(long)
	if len([]rune(got)) != 100 {
		t.Errorf("len = %d runes, want 100", len([]rune(got)))
	}
}

func TestSanitizeTitle_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"My Video",
		`a\b/c:d`,
		"  padded  ",
		strings.Repeat("long title ", 30),
		"",
		`\/:*?"<>|`,
	}
	for _, in := range inputs {
		once := SanitizeTitle(in)
		twice := SanitizeTitle(once)
		if once != twice {
			t.Errorf("SanitizeTitle not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSanitizeTitle_NoIllegalCharsRemain(t *testing.T) {
	t.Parallel()
	got := SanitizeTitle(`weird: "name" <with> every|bad*char?`)
	if strings.ContainsAny(got, illegalChars) {
		t.Errorf("result %q still contains illegal characters", got)
	}
}
