package usecase

import (
	"context"
	"fmt"

	"worklens/internal/modules/tasks/domain"
	tasksdto "worklens/internal/modules/tasks/dto"
	tasksin "worklens/internal/modules/tasks/port/in"
	"worklens/internal/modules/tasks/service"
	apperrors "worklens/internal/platform/errors"
)

type Interactor struct {
	manager *service.TaskManager
	reactor *service.TaskReactor
}

func NewInteractor(manager *service.TaskManager, reactor *service.TaskReactor) tasksin.Usecase {
	return &Interactor{manager: manager, reactor: reactor}
}

func (i *Interactor) Add(ctx context.Context, input tasksdto.AddInput) (tasksdto.TaskOutput, error) {
	task, err := i.manager.Add(ctx, input.Title, input.Project)
	if err != nil {
		return tasksdto.TaskOutput{}, err
	}
	return toOutput(task), nil
}

func (i *Interactor) Start(ctx context.Context, id string) (tasksdto.TaskOutput, error) {
	return i.move(ctx, id, domain.StatusDoing)
}

func (i *Interactor) Pause(ctx context.Context, id string) (tasksdto.TaskOutput, error) {
	return i.move(ctx, id, domain.StatusPaused)
}

func (i *Interactor) Complete(ctx context.Context, id string) (tasksdto.TaskOutput, error) {
	return i.move(ctx, id, domain.StatusCompleted)
}

func (i *Interactor) Abandon(ctx context.Context, id string) (tasksdto.TaskOutput, error) {
	return i.move(ctx, id, domain.StatusAbandoned)
}

func (i *Interactor) move(ctx context.Context, id string, next domain.Status) (tasksdto.TaskOutput, error) {
	if id == "" {
		return tasksdto.TaskOutput{}, fmt.Errorf("%w: task id is required", apperrors.ErrInvalidInput)
	}
	task, err := i.manager.Move(ctx, id, next)
	if err != nil {
		return tasksdto.TaskOutput{}, err
	}
	return toOutput(task), nil
}

func (i *Interactor) List(ctx context.Context, input tasksdto.ListInput) ([]tasksdto.TaskOutput, error) {
	var status domain.Status
	if input.Status != "" {
		parsed, err := domain.ParseStatus(input.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	tasks, err := i.manager.List(ctx, status, input.Project)
	if err != nil {
		return nil, err
	}
	out := make([]tasksdto.TaskOutput, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toOutput(task))
	}
	return out, nil
}

func (i *Interactor) React(ctx context.Context, input tasksdto.TriggerInput) (tasksdto.ReactOutput, error) {
	if input.SessionID == "" {
		return tasksdto.ReactOutput{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	reaction, err := i.reactor.React(ctx, input.SessionID)
	out := tasksdto.ReactOutput{Iterations: reaction.Iterations, ToolCalls: reaction.ToolCalls, Reply: reaction.Reply}
	return out, err
}

func toOutput(task domain.Task) tasksdto.TaskOutput {
	return tasksdto.TaskOutput{
		ID:          task.ID,
		Project:     task.Project,
		Title:       task.Title,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
}
