package domain

import (
	"fmt"
	"strings"

	capturedto "worklens/internal/modules/capture/dto"
)

// MinNarrativeSeconds drops flicker sessions from the narrative. It applies
// to merged durations.
const MinNarrativeSeconds = 0.5

// MergeAdjacent folds consecutive sessions on the same window into one.
// Non-adjacent repeats stay separate.
func MergeAdjacent(sessions []capturedto.SessionRecord) []capturedto.SessionRecord {
	merged := make([]capturedto.SessionRecord, 0, len(sessions))
	for _, session := range sessions {
		if n := len(merged); n > 0 && sameWindow(merged[n-1], session) {
			last := &merged[n-1]
			last.Duration += session.Duration
			last.KeyEvents = append(last.KeyEvents, session.KeyEvents...)
			last.KeyCount += session.KeyCount
			last.ClickCount += session.ClickCount
			last.ScrollCount += session.ScrollCount
			last.PrivacyFiltered = last.PrivacyFiltered || session.PrivacyFiltered
			if session.EndTime.After(last.EndTime) {
				last.EndTime = session.EndTime
			}
			continue
		}
		session.KeyEvents = append([]capturedto.KeyEventRecord(nil), session.KeyEvents...)
		merged = append(merged, session)
	}
	return merged
}

func sameWindow(a, b capturedto.SessionRecord) bool {
	return a.WindowClass == b.WindowClass && a.WindowTitle == b.WindowTitle
}

// NarrativeEntries merges adjacent sessions and then drops the ones too
// short to mention.
func NarrativeEntries(sessions []capturedto.SessionRecord) []capturedto.SessionRecord {
	out := []capturedto.SessionRecord{}
	for _, session := range MergeAdjacent(sessions) {
		if session.Duration < MinNarrativeSeconds {
			continue
		}
		out = append(out, session)
	}
	return out
}

// Narrative renders sessions as plain sentences for the model.
func Narrative(sessions []capturedto.SessionRecord) string {
	entries := NarrativeEntries(sessions)
	parts := make([]string, 0, len(entries))
	for idx, session := range entries {
		lead := "The user switched to"
		if idx == 0 {
			lead = "The user was on"
		}
		parts = append(parts, fmt.Sprintf("%s window class '%s' with title '%s' for %.1f seconds and %s.",
			lead, session.WindowClass, session.WindowTitle, session.Duration, actions(session)))
	}
	return strings.Join(parts, " ")
}

func actions(session capturedto.SessionRecord) string {
	if session.PrivacyFiltered {
		return "this activity was filtered for privacy"
	}
	clauses := []string{}
	if session.KeyCount > 0 {
		var typed strings.Builder
		for _, key := range session.KeyEvents {
			if key.Action == "press" {
				typed.WriteString(key.Key)
			}
		}
		clauses = append(clauses, fmt.Sprintf("typed '%s'", typed.String()))
	}
	if session.ClickCount > 0 {
		clauses = append(clauses, "clicked "+times(session.ClickCount))
	}
	if session.ScrollCount > 0 {
		clauses = append(clauses, "scrolled "+times(session.ScrollCount))
	}
	switch len(clauses) {
	case 0:
		return "did nothing"
	case 1:
		return clauses[0]
	default:
		return strings.Join(clauses[:len(clauses)-1], ", ") + ", and " + clauses[len(clauses)-1]
	}
}

func times(n int) string {
	if n == 1 {
		return "1 time"
	}
	return fmt.Sprintf("%d times", n)
}

// Totals sums the per-snapshot counters.
func Totals(counts []capturedto.Counts) capturedto.Counts {
	out := capturedto.Counts{}
	for _, c := range counts {
		out.Keys += c.Keys
		out.Clicks += c.Clicks
		out.Scrolls += c.Scrolls
	}
	return out
}
