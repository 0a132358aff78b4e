package entitystore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "worklens/internal/platform/errors"

	"github.com/google/go-cmp/cmp"
)

type note struct {
	ID        string   `json:"id"`
	SessionID string   `json:"session_id"`
	StartNS   int64    `json:"start_ns"`
	Body      string   `json:"body,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "worklens.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	if err := store.Add(ctx, "notes", "n1", note{ID: "n1", Body: "first"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := store.Add(ctx, "notes", "n1", note{ID: "n1", Body: "second"})
	if !errors.Is(err, apperrors.ErrStorageConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := store.Add(ctx, "other", "n1", note{ID: "n1"}); err != nil {
		t.Fatalf("same id in another collection must be accepted: %v", err)
	}
}

func TestUpdateMergesTopLevelFields(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	if err := store.Add(ctx, "notes", "n1", note{ID: "n1", SessionID: "s1", Body: "first", Tags: []string{"a"}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Update(ctx, "notes", "n1", map[string]any{"body": "second"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := note{}
	if err := store.Get(ctx, "notes", "n1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	want := note{ID: "n1", SessionID: "s1", Body: "second", Tags: []string{"a"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged document mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateMissingDocument(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	err := store.Update(context.Background(), "notes", "missing", map[string]any{"body": "x"})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpsertCreatesThenMerges(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	created, err := store.Upsert(ctx, "notes", "n1", note{ID: "n1", Body: "v1", Tags: []string{"x"}})
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}
	created, err = store.Upsert(ctx, "notes", "n1", note{ID: "n1", Body: "v2"})
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}
	got := note{}
	if err := store.Get(ctx, "notes", "n1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Body != "v2" || len(got.Tags) != 1 {
		t.Fatalf("unexpected merged note: %+v", got)
	}
	all, err := store.Query(ctx, "notes", Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("upsert duplicated the entity: %d rows", len(all))
	}
}

func TestConcurrentUpsertsKeepOneDocument(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Upsert(ctx, "notes", "shared", note{ID: "shared", StartNS: int64(i)}); err != nil {
				t.Errorf("upsert: %v", err)
			}
		}()
	}
	wg.Wait()
	all, err := store.Query(ctx, "notes", Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one document, got %d", len(all))
	}
}

func TestQueryFiltersSortsAndLimits(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, session := range []string{"s1", "s1", "s2", "s1"} {
		start := base.Add(time.Duration(i) * time.Minute)
		id := start.Format(time.RFC3339)
		if err := store.Add(ctx, "notes", id, note{ID: id, SessionID: session, StartNS: start.UnixNano()}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := QueryAs[note](ctx, store, "notes", Query{
		Where: []Condition{
			Where("session_id", Eq, "s1"),
			Where("start_ns", Gt, base),
		},
		SortBy: "start_ns",
		Order:  Desc,
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(got))
	}
	if got[0].StartNS <= got[1].StartNS {
		t.Fatalf("expected descending order: %+v", got)
	}

	limited, err := QueryAs[note](ctx, store, "notes", Query{SortBy: "start_ns", Limit: 1})
	if err != nil {
		t.Fatalf("limited query: %v", err)
	}
	if len(limited) != 1 || limited[0].StartNS != base.UnixNano() {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}

func TestQueryRejectsUnsafeFields(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	_, err := store.Query(context.Background(), "notes", Query{Where: []Condition{Where("x') OR 1=1 --", Eq, 1)}})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err = store.Query(context.Background(), "notes", Query{SortBy: "start_ns", Order: "sideways"})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid order, got %v", err)
	}
}

func TestWithinRollsBackOnError(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := store.Within(ctx, func(ctx context.Context) error {
		if err := store.Add(ctx, "notes", "n1", note{ID: "n1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := store.Get(ctx, "notes", "n1", &note{}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("insert must be rolled back, got %v", err)
	}
}

func TestReopenKeepsMigratedSchema(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "worklens.db")
	ctx := context.Background()
	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Add(ctx, "notes", "n1", note{ID: "n1"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	_ = first.Close()

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if err := second.Get(ctx, "notes", "n1", &note{}); err != nil {
		t.Fatalf("document lost after reopen: %v", err)
	}
}
