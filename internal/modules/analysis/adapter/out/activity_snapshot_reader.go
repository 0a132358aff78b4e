package out

import (
	"context"
	"time"

	activitydto "worklens/internal/modules/activity/dto"
	activityin "worklens/internal/modules/activity/port/in"
	analysisout "worklens/internal/modules/analysis/port/out"
)

// ActivitySnapshotReader serves raw snapshots from the activity module.
type ActivitySnapshotReader struct {
	activity activityin.Usecase
}

func NewActivitySnapshotReader(activity activityin.Usecase) analysisout.SnapshotReader {
	return &ActivitySnapshotReader{activity: activity}
}

func (r *ActivitySnapshotReader) Window(ctx context.Context, sessionID string, after, until time.Time) ([]activitydto.SnapshotOutput, error) {
	return r.activity.ListWindow(ctx, activitydto.WindowInput{SessionID: sessionID, After: after, Until: until})
}

func (r *ActivitySnapshotReader) Session(ctx context.Context, sessionID string) ([]activitydto.SnapshotOutput, error) {
	return r.activity.ListSession(ctx, sessionID)
}

func (r *ActivitySnapshotReader) LatestSessionID(ctx context.Context) (string, error) {
	summary, err := r.activity.LatestSession(ctx)
	if err != nil {
		return "", err
	}
	return summary.SessionID, nil
}
