package in

import (
	"context"

	"worklens/internal/modules/analysis/dto"
)

type Usecase interface {
	Track(ctx context.Context, input dto.TrackInput) error
	Untrack(ctx context.Context, sessionID string) error
	ActivityStored(ctx context.Context, input dto.TriggerInput) error
	AnalysisStored(ctx context.Context, input dto.TriggerInput) error
	Finalize(ctx context.Context, input dto.FinalizeInput) (dto.RecordOutput, error)
	List(ctx context.Context, input dto.ListInput) ([]dto.RecordOutput, error)
}
