package store

import (
	"regexp"
	"strings"
)

var slugDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\- ]+`)

// Slug normalizes title into a filesystem-safe fragment: keeps
// alphanumeric/underscore/hyphen/space, lowercases, replaces spaces with
// underscores, and truncates to maxLen runes.
func Slug(title string, maxLen int) string {
	s := slugDisallowed.ReplaceAllString(title, "")
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), "_")
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return string(runes)
}
