package out

import (
	"context"
	"time"

	"worklens/internal/modules/activity/domain"
	capturedto "worklens/internal/modules/capture/dto"
	"worklens/internal/platform/eventbus"
)

// CaptureSource is the capture backend, in process or behind a helper.
type CaptureSource interface {
	Snapshot(ctx context.Context) (capturedto.SnapshotOutput, error)
	SetPersistence(ctx context.Context, enabled bool) error
}

type SnapshotStore interface {
	Upsert(ctx context.Context, snapshot domain.Snapshot) error
	Range(ctx context.Context, sessionID string, after, until time.Time) ([]domain.Snapshot, error)
	BySession(ctx context.Context, sessionID string) ([]domain.Snapshot, error)
	Latest(ctx context.Context) (domain.Snapshot, error)
}

type Publisher interface {
	Broadcast(ctx context.Context, event eventbus.ActivityEvent)
}
