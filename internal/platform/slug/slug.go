package slug

import (
	"regexp"
	"strings"
)

var separators = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases input and joins its alphanumeric runs with dashes,
// keeping at most maxLen bytes when maxLen is positive. Empty results fall
// back to "session".
func Make(input string, maxLen int) string {
	s := separators.ReplaceAllString(strings.ToLower(input), "-")
	s = strings.Trim(s, "-")
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if s == "" {
		return "session"
	}
	return s
}
