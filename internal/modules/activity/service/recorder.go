package service

import (
	"context"
	"fmt"

	"worklens/internal/modules/activity/domain"
	"worklens/internal/modules/activity/dto"
	activityout "worklens/internal/modules/activity/port/out"
	"worklens/internal/platform/clock"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/eventbus"
)

// Recorder turns one capture backend snapshot into a stored raw snapshot
// and announces it on the bus.
type Recorder struct {
	clock     clock.Clock
	source    activityout.CaptureSource
	store     activityout.SnapshotStore
	publisher activityout.Publisher
}

func NewRecorder(clock clock.Clock, source activityout.CaptureSource, store activityout.SnapshotStore, publisher activityout.Publisher) *Recorder {
	return &Recorder{clock: clock, source: source, store: store, publisher: publisher}
}

func (r *Recorder) Tick(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	captured, err := r.source.Snapshot(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", apperrors.ErrCapture, err)
	}
	capturedAt := captured.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = r.clock.Now()
	}
	capturedAt = capturedAt.UTC()
	snapshot := domain.Snapshot{
		ID:             domain.SnapshotID(sessionID, capturedAt),
		SessionID:      sessionID,
		CapturedAt:     capturedAt,
		Screenshot:     captured.Screenshot,
		WindowSessions: captured.Sessions,
		Totals:         captured.Counts,
	}
	if err := snapshot.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	if err := r.store.Upsert(ctx, snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("store snapshot %s: %w", snapshot.ID, err)
	}
	r.publisher.Broadcast(ctx, eventbus.ActivityEvent{
		SessionID: sessionID,
		Timestamp: capturedAt,
		Type:      eventbus.ActivityStored,
		Data:      ToOutput(snapshot),
	})
	return snapshot, nil
}

func ToOutput(s domain.Snapshot) dto.SnapshotOutput {
	return dto.SnapshotOutput{
		ID:             s.ID,
		SessionID:      s.SessionID,
		CapturedAt:     s.CapturedAt,
		Screenshot:     s.Screenshot,
		WindowSessions: s.WindowSessions,
		Totals:         s.Totals,
	}
}
