package media

import "strings"

// maxTitleLen bounds the sanitized fragment so artifact paths stay well under
// common filesystem limits.
const maxTitleLen = 100

const illegalChars = `\/:*?"<>|`

// SanitizeTitle turns an arbitrary media title into a filesystem-safe filename
// fragment: characters illegal on common filesystems are stripped, surrounding
// whitespace is trimmed, and the result is truncated to 100 runes. It is pure
// and total — an empty or all-illegal title yields an empty fragment, which is
// still a valid stem.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if !strings.ContainsRune(illegalChars, r) {
			b.WriteRune(r)
		}
	}

	safe := strings.TrimSpace(b.String())
	runes := []rune(safe)
	if len(runes) > maxTitleLen {
		safe = strings.TrimSpace(string(runes[:maxTitleLen]))
	}
	return safe
}
