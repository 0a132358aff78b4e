package in

import (
	"context"
	"errors"

	tasksdto "worklens/internal/modules/tasks/dto"
	tasksin "worklens/internal/modules/tasks/port/in"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/eventbus"
)

// BusHandler runs the task reactor whenever a medium-term summary lands.
type BusHandler struct {
	usecase tasksin.Usecase
}

func NewBusHandler(usecase tasksin.Usecase) BusHandler {
	return BusHandler{usecase: usecase}
}

func (h BusHandler) MediumTermAvailable(ctx context.Context, event eventbus.ActivityEvent) error {
	_, err := h.usecase.React(ctx, tasksdto.TriggerInput{SessionID: event.SessionID, At: event.Timestamp})
	if errors.Is(err, apperrors.ErrReactorBusy) {
		return nil
	}
	return err
}

func (h BusHandler) Register(bus *eventbus.Bus[eventbus.ActivityEvent]) {
	bus.Subscribe(string(eventbus.AnalysisMediumTermAvailable), h.MediumTermAvailable)
}
