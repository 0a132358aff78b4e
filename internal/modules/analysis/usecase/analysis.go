package usecase

import (
	"context"
	"fmt"

	"worklens/internal/modules/analysis/domain"
	analysisdto "worklens/internal/modules/analysis/dto"
	analysisin "worklens/internal/modules/analysis/port/in"
	analysisout "worklens/internal/modules/analysis/port/out"
	"worklens/internal/modules/analysis/service"
	"worklens/internal/platform/clock"
	apperrors "worklens/internal/platform/errors"
)

type Interactor struct {
	short     *service.ShortTermAnalyzer
	medium    *service.MediumTermAnalyzer
	finalizer *service.SessionFinalizer
	store     analysisout.RecordStore
	clock     clock.Clock
}

func NewInteractor(short *service.ShortTermAnalyzer, medium *service.MediumTermAnalyzer, finalizer *service.SessionFinalizer, store analysisout.RecordStore, clock clock.Clock) analysisin.Usecase {
	return &Interactor{short: short, medium: medium, finalizer: finalizer, store: store, clock: clock}
}

func (i *Interactor) Track(_ context.Context, input analysisdto.TrackInput) error {
	if input.SessionID == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = i.clock.Now()
	}
	i.short.Track(input.SessionID, startedAt)
	i.medium.Track(input.SessionID)
	return nil
}

func (i *Interactor) Untrack(_ context.Context, sessionID string) error {
	i.short.Untrack(sessionID)
	i.medium.Untrack(sessionID)
	return nil
}

func (i *Interactor) ActivityStored(ctx context.Context, input analysisdto.TriggerInput) error {
	_, _, err := i.short.Handle(ctx, input.SessionID, input.At)
	return err
}

func (i *Interactor) AnalysisStored(ctx context.Context, input analysisdto.TriggerInput) error {
	_, _, err := i.medium.Handle(ctx, input.SessionID, input.At)
	return err
}

func (i *Interactor) Finalize(ctx context.Context, input analysisdto.FinalizeInput) (analysisdto.RecordOutput, error) {
	record, err := i.finalizer.Finalize(ctx, input.SessionID, input.Prompt)
	if err != nil {
		return analysisdto.RecordOutput{}, err
	}
	return service.ToOutput(record), nil
}

func (i *Interactor) List(ctx context.Context, input analysisdto.ListInput) ([]analysisdto.RecordOutput, error) {
	if input.SessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	query := analysisout.RecordQuery{SessionID: input.SessionID, Until: input.Until, Limit: input.Limit}
	if input.Type != "" {
		t, err := domain.ParseType(input.Type)
		if err != nil {
			return nil, err
		}
		query.Type = t
	}
	records, err := i.store.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]analysisdto.RecordOutput, 0, len(records))
	for _, record := range records {
		out = append(out, service.ToOutput(record))
	}
	return out, nil
}
