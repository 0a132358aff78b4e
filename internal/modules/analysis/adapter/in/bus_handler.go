package in

import (
	"context"

	analysisdto "worklens/internal/modules/analysis/dto"
	analysisin "worklens/internal/modules/analysis/port/in"
	"worklens/internal/platform/eventbus"
)

// BusHandler feeds activity bus events into the analyzers.
type BusHandler struct {
	usecase analysisin.Usecase
}

func NewBusHandler(usecase analysisin.Usecase) BusHandler {
	return BusHandler{usecase: usecase}
}

func (h BusHandler) ActivityStored(ctx context.Context, event eventbus.ActivityEvent) error {
	return h.usecase.ActivityStored(ctx, analysisdto.TriggerInput{SessionID: event.SessionID, At: event.Timestamp})
}

func (h BusHandler) AnalysisStored(ctx context.Context, event eventbus.ActivityEvent) error {
	return h.usecase.AnalysisStored(ctx, analysisdto.TriggerInput{SessionID: event.SessionID, At: event.Timestamp})
}

func (h BusHandler) Register(bus *eventbus.Bus[eventbus.ActivityEvent]) {
	bus.Subscribe(string(eventbus.ActivityStored), h.ActivityStored)
	bus.Subscribe(string(eventbus.AnalysisStored), h.AnalysisStored)
}
