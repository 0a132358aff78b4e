package out_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	activityout "worklens/internal/modules/activity/adapter/out"
	capturedto "worklens/internal/modules/capture/dto"
	"worklens/internal/modules/capture/service"
	captureusecase "worklens/internal/modules/capture/usecase"
	"worklens/internal/platform/clock"

	"go.uber.org/zap/zaptest"
)

func TestGRPCCaptureSourceReferenceHelper(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and spawns the capture helper")
	}
	binPath := buildCaptureHelper(t)
	feed := filepath.Join(t.TempDir(), "feed.jsonl")
	lines := `{"type":"focus","class":"kitty","title":"vim main.go"}
{"type":"key","key":"a","action":"press"}
{"type":"key","key":"a","action":"release"}
{"type":"click","button":"left"}
{"type":"focus","class":"firefox","title":"docs"}
`
	if err := os.WriteFile(feed, []byte(lines), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	source := activityout.NewGRPCCaptureSource(binPath, []string{feed}, nil, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = source.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	meta, err := source.Metadata(ctx)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Name != "capture-reference" {
		t.Fatalf("unexpected helper name: %s", meta.Name)
	}
	if err := source.SetPersistence(ctx, true); err != nil {
		t.Fatalf("set persistence: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		snapshot, err := source.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if len(snapshot.Sessions) > 0 {
			if snapshot.Sessions[len(snapshot.Sessions)-1].WindowClass == "" {
				t.Fatalf("window class lost in transit: %+v", snapshot.Sessions)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("helper never reported window sessions")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestGRPCCaptureSourceRedactsPrivateWindows(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and spawns the capture helper")
	}
	binPath := buildCaptureHelper(t)
	feed := filepath.Join(t.TempDir(), "feed.jsonl")
	lines := `{"type":"focus","class":"firefox","title":"My Bank - login"}
{"type":"key","key":"p","action":"press"}
{"type":"key","key":"w","action":"press"}
`
	if err := os.WriteFile(feed, []byte(lines), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rules := captureusecase.NewInteractor(service.NewSessionTracker(clock.SystemClock{}, nil, nil), nil, nil, zaptest.NewLogger(t))
	if _, err := rules.AddPrivacyRule(ctx, capturedto.PrivacyRuleInput{Pattern: "bank", Temporary: true}); err != nil {
		t.Fatalf("add rule: %v", err)
	}
	source := activityout.NewGRPCCaptureSource(binPath, []string{feed}, rules, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = source.Close() })
	if err := source.SetPersistence(ctx, true); err != nil {
		t.Fatalf("set persistence: %v", err)
	}

	keys := 0
	deadline := time.Now().Add(5 * time.Second)
	for keys < 2 {
		snapshot, err := source.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		for _, record := range snapshot.Sessions {
			if record.WindowTitle != "My Bank - login" {
				continue
			}
			if !record.PrivacyFiltered || len(record.KeyEvents) != 0 {
				t.Fatalf("private window leaked key events: %+v", record)
			}
			keys += record.KeyCount
		}
		if time.Now().After(deadline) {
			t.Fatalf("helper never reported both key presses, saw %d", keys)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func buildCaptureHelper(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "capture-helper")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/capture-reference")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build capture helper: %v\n%s", err, string(out))
	}
	return binPath
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
