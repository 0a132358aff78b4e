package markdown_test

import (
	"strings"
	"testing"

	"worklens/internal/platform/markdown"
)

func TestNoteRoundTrip(t *testing.T) {
	t.Parallel()
	note := markdown.Note{Meta: map[string]any{"session_id": "abc", "analyses": 3}, Body: "# Session abc\n"}
	rendered, err := note.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(rendered, "---\n") || !strings.Contains(rendered, "session_id: abc") {
		t.Fatalf("unexpected header:\n%s", rendered)
	}
	parsed, err := markdown.Parse(rendered)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Meta["session_id"] != "abc" || parsed.Meta["analyses"] != 3 {
		t.Fatalf("unexpected meta: %#v", parsed.Meta)
	}
	if strings.TrimSpace(parsed.Body) != "# Session abc" {
		t.Fatalf("unexpected body: %q", parsed.Body)
	}
}

func TestParseRejectsUnclosedHeader(t *testing.T) {
	t.Parallel()
	if _, err := markdown.Parse("---\nsession_id: abc\n"); err == nil {
		t.Fatal("expected an error for a header without closing fence")
	}
	note, err := markdown.Parse("just text")
	if err != nil || note.Body != "just text" || len(note.Meta) != 0 {
		t.Fatalf("plain content: %+v %v", note, err)
	}
}

func TestBlockReplaceKeepsSurroundingText(t *testing.T) {
	t.Parallel()
	block := markdown.Block{Name: "analyses"}

	body := block.Replace("## Notes\n\nwrote this by hand\n", "first")
	body = block.Replace(body, "second\n")
	if strings.Count(body, "<!-- worklens:analyses:start -->") != 1 {
		t.Fatalf("expected a single block:\n%s", body)
	}
	if !strings.Contains(body, "wrote this by hand") {
		t.Fatalf("hand-written text lost:\n%s", body)
	}
	got, ok := block.Contents(body)
	if !ok || got != "second" {
		t.Fatalf("contents = %q, %v", got, ok)
	}
	if _, ok := (markdown.Block{Name: "other"}).Contents(body); ok {
		t.Fatal("unexpected contents for a missing block")
	}
}
