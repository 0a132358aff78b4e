package out

import (
	"context"

	activityout "worklens/internal/modules/activity/port/out"
	capturedto "worklens/internal/modules/capture/dto"
	capturein "worklens/internal/modules/capture/port/in"
)

// LocalCaptureSource reads snapshots from the in-process tracker.
type LocalCaptureSource struct {
	capture capturein.Usecase
}

func NewLocalCaptureSource(capture capturein.Usecase) activityout.CaptureSource {
	return &LocalCaptureSource{capture: capture}
}

func (s *LocalCaptureSource) Snapshot(ctx context.Context) (capturedto.SnapshotOutput, error) {
	return s.capture.Snapshot(ctx)
}

func (s *LocalCaptureSource) SetPersistence(ctx context.Context, enabled bool) error {
	return s.capture.SetPersistence(ctx, enabled)
}
