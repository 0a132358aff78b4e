package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"worklens/internal/modules/session/domain"
	sessionout "worklens/internal/modules/session/port/out"
	"worklens/internal/platform/markdown"
	"worklens/internal/platform/slug"
)

var analysesBlock = markdown.Block{Name: "analyses"}

// MarkdownReportStore writes one note per session under
// reports/YYYY/MM/DD. Rewriting a report only replaces the generated block,
// so notes added by hand survive a second finalize.
type MarkdownReportStore struct {
	dir string
}

func NewMarkdownReportStore(dir string) sessionout.ReportStore {
	return &MarkdownReportStore{dir: dir}
}

func (s *MarkdownReportStore) Save(_ context.Context, report domain.Report) (string, error) {
	date := report.StartedAt.UTC()
	dir := filepath.Join(s.dir, date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.md", date.Format("150405"), slug.Make(report.SessionID, 8))
	path := filepath.Join(dir, name)

	body := fmt.Sprintf("# Session %s\n\n## Notes\n\n", report.SessionID)
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		previous, parseErr := markdown.Parse(string(existing))
		if parseErr != nil {
			return "", fmt.Errorf("read existing report: %w", parseErr)
		}
		body = previous.Body
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read existing report: %w", err)
	}
	body = analysesBlock.Replace(body, renderAnalyses(report))

	meta := map[string]any{
		"schema_version":   domain.SchemaVersion,
		"session_id":       report.SessionID,
		"started_at":       report.StartedAt.UTC().Format(time.RFC3339),
		"ended_at":         report.EndedAt.UTC().Format(time.RFC3339),
		"duration_seconds": int(report.Duration().Seconds()),
		"analyses":         len(report.Entries),
	}
	if report.Prompt != "" {
		meta["prompt"] = report.Prompt
	}
	rendered, err := markdown.Note{Meta: meta, Body: body}.Render()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write session report: %w", err)
	}
	return path, nil
}

func renderAnalyses(report domain.Report) string {
	var b strings.Builder
	b.WriteString("## Summary\n\n")
	b.WriteString(strings.TrimSpace(report.Summary))
	b.WriteString("\n")
	for _, section := range []struct{ kind, title string }{
		{"special", "Medium-term summaries"},
		{"regular", "Observations"},
	} {
		entries := report.EntriesOf(section.kind)
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n", section.title)
		for _, entry := range entries {
			fmt.Fprintf(&b, "\n### %s to %s\n\n%s\n", entry.Start.UTC().Format("15:04:05"), entry.End.UTC().Format("15:04:05"), strings.TrimSpace(entry.Response))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
