package domain

import (
	"regexp"
	"slices"
	"strings"
)

// PrivacyRules hold title patterns. AlwaysPrivate is persisted,
// CurrentPrivate lives for the running process only.
type PrivacyRules struct {
	AlwaysPrivate  []string
	CurrentPrivate []string
}

// IsPrivate matches every pattern case-insensitively against the window
// title. Patterns that are not valid regular expressions match as
// substrings.
func (r PrivacyRules) IsPrivate(window WindowInfo) bool {
	if window.Title == "" {
		return false
	}
	for _, pattern := range slices.Concat(r.AlwaysPrivate, r.CurrentPrivate) {
		if matchTitle(pattern, window.Title) {
			return true
		}
	}
	return false
}

func matchTitle(pattern, title string) bool {
	if strings.TrimSpace(pattern) == "" {
		return false
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return strings.Contains(strings.ToLower(title), strings.ToLower(pattern))
	}
	return re.MatchString(title)
}

func (r PrivacyRules) Add(pattern string, temporary bool) PrivacyRules {
	out := r.Clone()
	if temporary {
		if !slices.Contains(out.CurrentPrivate, pattern) {
			out.CurrentPrivate = append(out.CurrentPrivate, pattern)
		}
		return out
	}
	if !slices.Contains(out.AlwaysPrivate, pattern) {
		out.AlwaysPrivate = append(out.AlwaysPrivate, pattern)
	}
	return out
}

func (r PrivacyRules) Remove(pattern string, temporary bool) (PrivacyRules, bool) {
	out := r.Clone()
	list := &out.AlwaysPrivate
	if temporary {
		list = &out.CurrentPrivate
	}
	idx := slices.Index(*list, pattern)
	if idx < 0 {
		return out, false
	}
	*list = slices.Delete(*list, idx, idx+1)
	return out, true
}

func (r PrivacyRules) Clone() PrivacyRules {
	return PrivacyRules{
		AlwaysPrivate:  slices.Clone(r.AlwaysPrivate),
		CurrentPrivate: slices.Clone(r.CurrentPrivate),
	}
}
