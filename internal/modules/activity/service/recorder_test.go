package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"worklens/internal/modules/activity/domain"
	"worklens/internal/modules/activity/dto"
	"worklens/internal/modules/activity/service"
	capturedto "worklens/internal/modules/capture/dto"
	"worklens/internal/platform/clock"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/eventbus"
)

type fakeSource struct {
	snapshot capturedto.SnapshotOutput
	err      error
}

func (f *fakeSource) Snapshot(context.Context) (capturedto.SnapshotOutput, error) {
	return f.snapshot, f.err
}

func (f *fakeSource) SetPersistence(context.Context, bool) error { return nil }

type memoryStore struct {
	mu    sync.Mutex
	saved []domain.Snapshot
	err   error
}

func (m *memoryStore) Upsert(_ context.Context, s domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

func (m *memoryStore) Range(context.Context, string, time.Time, time.Time) ([]domain.Snapshot, error) {
	return nil, nil
}

func (m *memoryStore) BySession(context.Context, string) ([]domain.Snapshot, error) { return nil, nil }

func (m *memoryStore) Latest(context.Context) (domain.Snapshot, error) { return domain.Snapshot{}, nil }

type recordingPublisher struct {
	events []eventbus.ActivityEvent
}

func (r *recordingPublisher) Broadcast(_ context.Context, e eventbus.ActivityEvent) {
	r.events = append(r.events, e)
}

func TestTickStoresAndAnnounces(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 1, 9, 0, 10, 0, time.UTC)
	source := &fakeSource{snapshot: capturedto.SnapshotOutput{
		Sessions:   []capturedto.SessionRecord{{WindowClass: "kitty", WindowTitle: "vim", StartTime: at.Add(-5 * time.Second), EndTime: at, Duration: 5}},
		Counts:     capturedto.Counts{Keys: 12},
		CapturedAt: at,
	}}
	store := &memoryStore{}
	publisher := &recordingPublisher{}
	recorder := service.NewRecorder(&clock.Fixed{At: at.Add(time.Hour)}, source, store, publisher)

	snapshot, err := recorder.Tick(context.Background(), "s1")
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if snapshot.ID != domain.SnapshotID("s1", at) {
		t.Fatalf("id must derive from session and capture time, got %s", snapshot.ID)
	}
	if len(store.saved) != 1 || store.saved[0].SessionID != "s1" {
		t.Fatalf("unexpected stored snapshots: %+v", store.saved)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != eventbus.ActivityStored || !event.Timestamp.Equal(at) || event.SessionID != "s1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	payload, ok := event.Data.(dto.SnapshotOutput)
	if !ok || len(payload.WindowSessions) != 1 || payload.Totals.Keys != 12 {
		t.Fatalf("unexpected payload: %#v", event.Data)
	}
}

func TestTickFallsBackToClock(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	recorder := service.NewRecorder(&clock.Fixed{At: now}, &fakeSource{}, store, &recordingPublisher{})
	snapshot, err := recorder.Tick(context.Background(), "s1")
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !snapshot.CapturedAt.Equal(now) {
		t.Fatalf("expected clock time, got %s", snapshot.CapturedAt)
	}
}

func TestTickCaptureFailure(t *testing.T) {
	t.Parallel()
	publisher := &recordingPublisher{}
	recorder := service.NewRecorder(&clock.Fixed{At: time.Now()}, &fakeSource{err: errors.New("display gone")}, &memoryStore{}, publisher)
	_, err := recorder.Tick(context.Background(), "s1")
	if !errors.Is(err, apperrors.ErrCapture) {
		t.Fatalf("expected capture error, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("no event may be published on failure")
	}
}

func TestTickStorageFailureSkipsEvent(t *testing.T) {
	t.Parallel()
	publisher := &recordingPublisher{}
	store := &memoryStore{err: apperrors.ErrStorage}
	recorder := service.NewRecorder(&clock.Fixed{At: time.Now()}, &fakeSource{}, store, publisher)
	if _, err := recorder.Tick(context.Background(), "s1"); !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("no event may be published on failure")
	}
}

func TestTickRequiresSession(t *testing.T) {
	t.Parallel()
	recorder := service.NewRecorder(&clock.Fixed{At: time.Now()}, &fakeSource{}, &memoryStore{}, &recordingPublisher{})
	if _, err := recorder.Tick(context.Background(), ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
