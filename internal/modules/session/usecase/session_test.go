package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	sessionout "worklens/internal/modules/session/adapter/out"
	"worklens/internal/modules/session/domain"
	sessiondto "worklens/internal/modules/session/dto"
	sessionin "worklens/internal/modules/session/port/in"
	"worklens/internal/modules/session/service"
	"worklens/internal/modules/session/usecase"
	"worklens/internal/platform/clock"
	apperrors "worklens/internal/platform/errors"

	"go.uber.org/zap/zaptest"
)

type fakeID struct{}

func (fakeID) New() string { return "5f0c2a9e-1111-2222-3333-444455556666" }

// calls records the order in which the lifecycle touches its collaborators.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(entry string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, entry)
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.log)
}

type fakeRecorder struct {
	calls    *calls
	startErr error
}

func (r *fakeRecorder) Start(_ context.Context, sessionID string) error {
	r.calls.add("recorder.start " + sessionID)
	return r.startErr
}

func (r *fakeRecorder) Stop(context.Context) error {
	r.calls.add("recorder.stop")
	return nil
}

type fakeAnalyzer struct {
	calls       *calls
	finalizeErr error
	summary     string
}

func (a *fakeAnalyzer) Track(_ context.Context, sessionID string, _ time.Time) error {
	a.calls.add("track " + sessionID)
	return nil
}

func (a *fakeAnalyzer) Untrack(_ context.Context, sessionID string) error {
	a.calls.add("untrack " + sessionID)
	return nil
}

func (a *fakeAnalyzer) Finalize(_ context.Context, sessionID, prompt string) (domain.Report, error) {
	a.calls.add("finalize " + sessionID + " " + prompt)
	if a.finalizeErr != nil {
		return domain.Report{}, a.finalizeErr
	}
	if sessionID == "" {
		sessionID = "older-session"
	}
	start := time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)
	return domain.Report{
		SessionID: sessionID,
		StartedAt: start,
		EndedAt:   start.Add(90 * time.Second),
		Summary:   a.summary,
		Entries: []domain.ReportEntry{
			{Type: "regular", Start: start, End: start.Add(30 * time.Second), Response: "Editing main.go"},
			{Type: "special", Start: start, End: start.Add(90 * time.Second), Response: "Coding session"},
		},
	}, nil
}

type fakeDrainer struct{ calls *calls }

func (d fakeDrainer) Drain(context.Context) error {
	d.calls.add("drain")
	return nil
}

type fixture struct {
	calls    *calls
	recorder *fakeRecorder
	analyzer *fakeAnalyzer
	dataDir  string
	uc       sessionin.Usecase
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dataDir := t.TempDir()
	c := &calls{}
	recorder := &fakeRecorder{calls: c}
	analyzer := &fakeAnalyzer{calls: c, summary: "Worked on the parser."}
	svc := service.NewSessionService(
		&clock.Fixed{At: time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)},
		fakeID{},
		analyzer,
		sessionout.NewMarkdownReportStore(filepath.Join(dataDir, "reports")),
	)
	uc := usecase.NewInteractor(svc, recorder, analyzer, fakeDrainer{calls: c}, sessionout.NewFileActiveSessionStore(dataDir), zaptest.NewLogger(t))
	return fixture{calls: c, recorder: recorder, analyzer: analyzer, dataDir: dataDir, uc: uc}
}

func TestLifecycleStartStopWritesReport(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	start, err := f.uc.Start(ctx, sessiondto.StartInput{Prompt: "focus on code"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	active, err := f.uc.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.SessionID != start.SessionID || active.Phase != string(domain.PhaseCapturing) {
		t.Fatalf("unexpected active session %+v", active)
	}
	if _, err := f.uc.Start(ctx, sessiondto.StartInput{}); !errors.Is(err, apperrors.ErrPipelineBusy) {
		t.Fatalf("expected busy pipeline, got %v", err)
	}

	report, err := f.uc.Stop(ctx, sessiondto.StopInput{})
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if report.Duration != 90*time.Second || report.Analyses != 2 {
		t.Fatalf("unexpected report %+v", report)
	}

	id := start.SessionID
	want := []string{"track " + id, "recorder.start " + id, "recorder.stop", "drain", "finalize " + id + " focus on code", "untrack " + id}
	if got := f.calls.list(); !slices.Equal(got, want) {
		t.Fatalf("unexpected call order:\n got %v\nwant %v", got, want)
	}

	if _, err := f.uc.GetActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected no active session after stop, got %v", err)
	}
	if _, err := f.uc.Stop(ctx, sessiondto.StopInput{}); !errors.Is(err, apperrors.ErrNotCapturing) {
		t.Fatalf("expected not capturing, got %v", err)
	}

	note, err := os.ReadFile(report.Path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, fragment := range []string{"session_id: " + id, "duration_seconds: 90", "prompt: focus on code", "Worked on the parser.", "## Observations", "Editing main.go", "## Medium-term summaries"} {
		if !strings.Contains(string(note), fragment) {
			t.Fatalf("report is missing %q:\n%s", fragment, note)
		}
	}
	if !strings.Contains(report.Path, filepath.Join("reports", "2026", "02", "25")) {
		t.Fatalf("report must be filed by date, got %s", report.Path)
	}
}

func TestStopReturnsToIdleWhenFinalizeFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.analyzer.finalizeErr = apperrors.ErrNotFound
	ctx := context.Background()

	if _, err := f.uc.Start(ctx, sessiondto.StartInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.uc.Stop(ctx, sessiondto.StopInput{}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected finalize error, got %v", err)
	}
	if _, err := f.uc.Start(ctx, sessiondto.StartInput{}); err != nil {
		t.Fatalf("pipeline must be idle again: %v", err)
	}
}

func TestStartRollsBackWhenRecorderFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.recorder.startErr = apperrors.ErrCapture
	ctx := context.Background()

	if _, err := f.uc.Start(ctx, sessiondto.StartInput{}); !errors.Is(err, apperrors.ErrCapture) {
		t.Fatalf("expected capture error, got %v", err)
	}
	got := f.calls.list()
	want := "untrack " + (fakeID{}).New()
	if got[len(got)-1] != want {
		t.Fatalf("expected untrack after failed start, got %v", got)
	}
	if _, err := f.uc.GetActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected idle pipeline, got %v", err)
	}
}

func TestFinalizePreservesHandWrittenNotes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Finalize(ctx, sessiondto.FinalizeInput{})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if first.SessionID != "older-session" {
		t.Fatalf("expected the latest session to be resolved, got %s", first.SessionID)
	}
	note, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	edited := strings.Replace(string(note), "## Notes\n", "## Notes\n\nremember the flaky test\n", 1)
	if err := os.WriteFile(first.Path, []byte(edited), 0o644); err != nil {
		t.Fatalf("edit report: %v", err)
	}

	f.analyzer.summary = "Second pass summary."
	second, err := f.uc.Finalize(ctx, sessiondto.FinalizeInput{SessionID: "older-session"})
	if err != nil {
		t.Fatalf("finalize again: %v", err)
	}
	if second.Path != first.Path {
		t.Fatalf("expected the same report path, got %s and %s", first.Path, second.Path)
	}
	note, err = os.ReadFile(second.Path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	text := string(note)
	if !strings.Contains(text, "remember the flaky test") || !strings.Contains(text, "Second pass summary.") {
		t.Fatalf("expected notes kept and summary replaced:\n%s", text)
	}
	if strings.Contains(text, "Worked on the parser.") || strings.Count(text, "## Summary") != 1 {
		t.Fatalf("generated block must be replaced, not appended:\n%s", text)
	}
}

func TestFinalizeRejectsTheCapturingSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.uc.Start(ctx, sessiondto.StartInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.uc.Finalize(ctx, sessiondto.FinalizeInput{}); !errors.Is(err, apperrors.ErrPipelineBusy) {
		t.Fatalf("expected busy pipeline, got %v", err)
	}
}
