package domain

import (
	"testing"
	"time"

	capturedto "worklens/internal/modules/capture/dto"

	"github.com/google/go-cmp/cmp"
)

func TestMergeAdjacentBeforeDropThreshold(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sessions := []capturedto.SessionRecord{
		{WindowClass: "code", WindowTitle: "main.go", StartTime: start, EndTime: start.Add(300 * time.Millisecond), Duration: 0.3},
		{WindowClass: "code", WindowTitle: "main.go", StartTime: start.Add(300 * time.Millisecond), EndTime: start.Add(time.Second), Duration: 0.7, ClickCount: 2},
	}
	entries := NarrativeEntries(sessions)
	if len(entries) != 1 {
		t.Fatalf("expected one merged entry, got %d", len(entries))
	}
	if entries[0].Duration < 0.999 || entries[0].Duration > 1.001 || entries[0].ClickCount != 2 {
		t.Fatalf("unexpected merged entry: %+v", entries[0])
	}
	want := "The user was on window class 'code' with title 'main.go' for 1.0 seconds and clicked 2 times."
	if got := Narrative(sessions); got != want {
		t.Fatalf("narrative mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestMergeAdjacentKeepsNonAdjacentRepeats(t *testing.T) {
	t.Parallel()
	sessions := []capturedto.SessionRecord{
		{WindowClass: "a", WindowTitle: "x", Duration: 1},
		{WindowClass: "b", WindowTitle: "y", Duration: 1},
		{WindowClass: "a", WindowTitle: "x", Duration: 1},
	}
	if got := len(MergeAdjacent(sessions)); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
}

func TestMergeAdjacentIsIdempotentAndPreservesTotals(t *testing.T) {
	t.Parallel()
	sessions := []capturedto.SessionRecord{
		{WindowClass: "a", WindowTitle: "x", Duration: 1, KeyCount: 2, KeyEvents: []capturedto.KeyEventRecord{{Key: "h", Action: "press"}, {Key: "i", Action: "press"}}},
		{WindowClass: "a", WindowTitle: "x", Duration: 2, KeyCount: 1, ScrollCount: 3, PrivacyFiltered: true, KeyEvents: []capturedto.KeyEventRecord{{Key: "!", Action: "press"}}},
		{WindowClass: "b", WindowTitle: "y", Duration: 4, ClickCount: 1},
	}
	once := MergeAdjacent(sessions)
	twice := MergeAdjacent(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("merge is not idempotent (-once +twice):\n%s", diff)
	}
	keys, clicks, scrolls, duration := 0, 0, 0, 0.0
	for _, s := range once {
		keys += s.KeyCount
		clicks += s.ClickCount
		scrolls += s.ScrollCount
		duration += s.Duration
	}
	if keys != 3 || clicks != 1 || scrolls != 3 || duration != 7 {
		t.Fatalf("totals changed: keys=%d clicks=%d scrolls=%d duration=%.1f", keys, clicks, scrolls, duration)
	}
	if !once[0].PrivacyFiltered || len(once[0].KeyEvents) != 3 {
		t.Fatalf("privacy flag must OR and key events concatenate: %+v", once[0])
	}
	if len(sessions[0].KeyEvents) != 2 {
		t.Fatalf("input was mutated")
	}
}

func TestNarrativePhrasing(t *testing.T) {
	t.Parallel()
	sessions := []capturedto.SessionRecord{
		{WindowClass: "kitty", WindowTitle: "vim", Duration: 12.34, KeyCount: 2, ClickCount: 1, ScrollCount: 1,
			KeyEvents: []capturedto.KeyEventRecord{{Key: "o", Action: "press"}, {Key: "o", Action: "release"}, {Key: "k", Action: "press"}}},
		{WindowClass: "firefox", WindowTitle: "docs", Duration: 3, ClickCount: 1},
		{WindowClass: "slack", WindowTitle: "dm", Duration: 2, KeyCount: 5, PrivacyFiltered: true},
		{WindowClass: "flicker", WindowTitle: "", Duration: 0.2},
		{WindowClass: "term", WindowTitle: "idle", Duration: 1},
	}
	want := "The user was on window class 'kitty' with title 'vim' for 12.3 seconds and typed 'ok', clicked 1 time, and scrolled 1 time." +
		" The user switched to window class 'firefox' with title 'docs' for 3.0 seconds and clicked 1 time." +
		" The user switched to window class 'slack' with title 'dm' for 2.0 seconds and this activity was filtered for privacy." +
		" The user switched to window class 'term' with title 'idle' for 1.0 seconds and did nothing."
	if got := Narrative(sessions); got != want {
		t.Fatalf("narrative mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestNarrativeTwoActions(t *testing.T) {
	t.Parallel()
	got := Narrative([]capturedto.SessionRecord{{WindowClass: "a", WindowTitle: "b", Duration: 1, ClickCount: 2, ScrollCount: 4}})
	want := "The user was on window class 'a' with title 'b' for 1.0 seconds and clicked 2 times, and scrolled 4 times."
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestNarrativeEmpty(t *testing.T) {
	t.Parallel()
	if got := Narrative(nil); got != "" {
		t.Fatalf("expected empty narrative, got %q", got)
	}
}
