package in

import (
	"context"

	"worklens/internal/modules/tasks/dto"
)

type Usecase interface {
	Add(ctx context.Context, input dto.AddInput) (dto.TaskOutput, error)
	Start(ctx context.Context, id string) (dto.TaskOutput, error)
	Pause(ctx context.Context, id string) (dto.TaskOutput, error)
	Complete(ctx context.Context, id string) (dto.TaskOutput, error)
	Abandon(ctx context.Context, id string) (dto.TaskOutput, error)
	List(ctx context.Context, input dto.ListInput) ([]dto.TaskOutput, error)
	React(ctx context.Context, input dto.TriggerInput) (dto.ReactOutput, error)
}
