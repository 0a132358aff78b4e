package out

import (
	"context"

	activitydto "worklens/internal/modules/activity/dto"
	activityin "worklens/internal/modules/activity/port/in"
	sessionout "worklens/internal/modules/session/port/out"
)

type ActivityRecorder struct {
	activity activityin.Usecase
}

func NewActivityRecorder(activity activityin.Usecase) sessionout.Recorder {
	return ActivityRecorder{activity: activity}
}

func (r ActivityRecorder) Start(ctx context.Context, sessionID string) error {
	return r.activity.Start(ctx, activitydto.StartInput{SessionID: sessionID})
}

func (r ActivityRecorder) Stop(ctx context.Context) error {
	return r.activity.Stop(ctx)
}
