package service

import (
	"context"
	"fmt"

	"worklens/internal/modules/tasks/domain"
	tasksout "worklens/internal/modules/tasks/port/out"
	"worklens/internal/platform/clock"
	"worklens/internal/platform/id"
	"worklens/internal/platform/tx"
)

// TaskManager applies task changes requested by the CLI and the reactor.
type TaskManager struct {
	store tasksout.TaskStore
	tx    tx.Manager
	ids   id.Generator
	clock clock.Clock
}

func NewTaskManager(store tasksout.TaskStore, txManager tx.Manager, ids id.Generator, clock clock.Clock) *TaskManager {
	if txManager == nil {
		txManager = tx.NoopManager{}
	}
	return &TaskManager{store: store, tx: txManager, ids: ids, clock: clock}
}

func (m *TaskManager) Add(ctx context.Context, title, project string) (domain.Task, error) {
	task, err := domain.NewTask(m.ids.New(), title, project, m.clock.Now())
	if err != nil {
		return domain.Task{}, err
	}
	if err := m.store.Add(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("add task: %w", err)
	}
	return task, nil
}

func (m *TaskManager) Move(ctx context.Context, taskID string, next domain.Status) (domain.Task, error) {
	var moved domain.Task
	err := m.tx.Within(ctx, func(ctx context.Context) error {
		task, err := m.store.Get(ctx, taskID)
		if err != nil {
			return err
		}
		moved, err = task.MoveTo(next, m.clock.Now())
		if err != nil {
			return err
		}
		return m.store.Save(ctx, moved)
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("move task %s: %w", taskID, err)
	}
	return moved, nil
}

func (m *TaskManager) List(ctx context.Context, status domain.Status, project string) ([]domain.Task, error) {
	return m.store.List(ctx, status, project)
}
