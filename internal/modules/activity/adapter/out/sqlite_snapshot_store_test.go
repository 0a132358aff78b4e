package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	activityout "worklens/internal/modules/activity/adapter/out"
	"worklens/internal/modules/activity/domain"
	capturedto "worklens/internal/modules/capture/dto"
	"worklens/internal/platform/entitystore"
	apperrors "worklens/internal/platform/errors"

	"github.com/google/go-cmp/cmp"
)

func openSnapshots(t *testing.T) *entitystore.Store {
	t.Helper()
	store, err := entitystore.Open(context.Background(), filepath.Join(t.TempDir(), "worklens.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func snapshotAt(sessionID string, at time.Time, title string) domain.Snapshot {
	return domain.Snapshot{
		ID:         domain.SnapshotID(sessionID, at),
		SessionID:  sessionID,
		CapturedAt: at,
		WindowSessions: []capturedto.SessionRecord{{
			WindowClass: "firefox",
			WindowTitle: title,
			StartTime:   at.Add(-10 * time.Second),
			EndTime:     at,
			Duration:    10,
			KeyEvents:   []capturedto.KeyEventRecord{},
			KeyCount:    3,
		}},
		Totals: capturedto.Counts{Keys: 3},
	}
}

func TestSnapshotStoreRangeIsHalfOpen(t *testing.T) {
	t.Parallel()
	store := activityout.NewSQLiteSnapshotStore(openSnapshots(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		if err := store.Upsert(ctx, snapshotAt("s1", base.Add(time.Duration(i)*10*time.Second), "docs")); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if err := store.Upsert(ctx, snapshotAt("s2", base.Add(20*time.Second), "other")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.Range(ctx, "s1", base.Add(10*time.Second), base.Add(30*time.Second))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots in (10s, 30s], got %d", len(got))
	}
	if !got[0].CapturedAt.Equal(base.Add(20*time.Second)) || !got[1].CapturedAt.Equal(base.Add(30*time.Second)) {
		t.Fatalf("unexpected order: %s, %s", got[0].CapturedAt, got[1].CapturedAt)
	}
	want := snapshotAt("s1", base.Add(20*time.Second), "docs")
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotStoreUpsertReplaces(t *testing.T) {
	t.Parallel()
	store := activityout.NewSQLiteSnapshotStore(openSnapshots(t))
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := store.Upsert(ctx, snapshotAt("s1", at, "first")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Upsert(ctx, snapshotAt("s1", at, "second")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	all, err := store.BySession(ctx, "s1")
	if err != nil {
		t.Fatalf("by session: %v", err)
	}
	if len(all) != 1 || all[0].WindowSessions[0].WindowTitle != "second" {
		t.Fatalf("expected one replaced snapshot, got %+v", all)
	}
}

func TestSnapshotStoreLatest(t *testing.T) {
	t.Parallel()
	store := activityout.NewSQLiteSnapshotStore(openSnapshots(t))
	ctx := context.Background()
	if _, err := store.Latest(ctx); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_ = store.Upsert(ctx, snapshotAt("old", at, "a"))
	_ = store.Upsert(ctx, snapshotAt("new", at.Add(time.Minute), "b"))
	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.SessionID != "new" {
		t.Fatalf("expected newest session, got %s", latest.SessionID)
	}
}

func TestSnapshotStoreKeepsSameInstantSessionsApart(t *testing.T) {
	t.Parallel()
	store := activityout.NewSQLiteSnapshotStore(openSnapshots(t))
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := store.Upsert(ctx, snapshotAt("s1", at, "docs")); err != nil {
		t.Fatalf("upsert s1: %v", err)
	}
	if err := store.Upsert(ctx, snapshotAt("s2", at, "other")); err != nil {
		t.Fatalf("upsert s2: %v", err)
	}
	for sessionID, title := range map[string]string{"s1": "docs", "s2": "other"} {
		got, err := store.BySession(ctx, sessionID)
		if err != nil {
			t.Fatalf("by session %s: %v", sessionID, err)
		}
		if len(got) != 1 || got[0].WindowSessions[0].WindowTitle != title {
			t.Fatalf("session %s lost its snapshot: %+v", sessionID, got)
		}
	}
}
