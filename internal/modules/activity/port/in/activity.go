package in

import (
	"context"

	"worklens/internal/modules/activity/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) error
	Stop(ctx context.Context) error
	Flush(ctx context.Context) (dto.SnapshotOutput, error)
	Running() bool
	// ListWindow returns snapshots captured in (After, Until], oldest first.
	ListWindow(ctx context.Context, input dto.WindowInput) ([]dto.SnapshotOutput, error)
	ListSession(ctx context.Context, sessionID string) ([]dto.SnapshotOutput, error)
	LatestSession(ctx context.Context) (dto.SessionSummary, error)
}
