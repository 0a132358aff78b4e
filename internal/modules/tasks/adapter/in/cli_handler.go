package in

import (
	"context"

	tasksdto "worklens/internal/modules/tasks/dto"
	tasksin "worklens/internal/modules/tasks/port/in"
)

type CLIHandler struct {
	usecase tasksin.Usecase
}

func NewCLIHandler(usecase tasksin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Add(ctx context.Context, title, project string) (tasksdto.TaskOutput, error) {
	return h.usecase.Add(ctx, tasksdto.AddInput{Title: title, Project: project})
}

func (h CLIHandler) Start(ctx context.Context, id string) (tasksdto.TaskOutput, error) {
	return h.usecase.Start(ctx, id)
}

func (h CLIHandler) Pause(ctx context.Context, id string) (tasksdto.TaskOutput, error) {
	return h.usecase.Pause(ctx, id)
}

func (h CLIHandler) Complete(ctx context.Context, id string) (tasksdto.TaskOutput, error) {
	return h.usecase.Complete(ctx, id)
}

func (h CLIHandler) Abandon(ctx context.Context, id string) (tasksdto.TaskOutput, error) {
	return h.usecase.Abandon(ctx, id)
}

func (h CLIHandler) List(ctx context.Context, status, project string) ([]tasksdto.TaskOutput, error) {
	return h.usecase.List(ctx, tasksdto.ListInput{Status: status, Project: project})
}
