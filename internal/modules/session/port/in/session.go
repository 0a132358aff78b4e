package in

import (
	"context"

	"worklens/internal/modules/session/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	Stop(ctx context.Context, input dto.StopInput) (dto.ReportOutput, error)
	// Finalize summarizes a past session; an empty id picks the latest one.
	Finalize(ctx context.Context, input dto.FinalizeInput) (dto.ReportOutput, error)
	GetActive(ctx context.Context) (dto.ActiveSessionOutput, error)
}
