package service_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"worklens/internal/modules/tasks/domain"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/llm"
)

type memoryTasks struct {
	mu    sync.Mutex
	tasks []domain.Task
}

func (m *memoryTasks) Add(_ context.Context, task domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tasks {
		if existing.ID == task.ID {
			return apperrors.ErrStorageConflict
		}
	}
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *memoryTasks) Get(_ context.Context, id string) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, task := range m.tasks {
		if task.ID == id {
			return task, nil
		}
	}
	return domain.Task{}, fmt.Errorf("%w: task %s", apperrors.ErrNotFound, id)
}

func (m *memoryTasks) Save(_ context.Context, task domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == task.ID {
			m.tasks[i] = task
			return nil
		}
	}
	return fmt.Errorf("%w: task %s", apperrors.ErrNotFound, task.ID)
}

func (m *memoryTasks) List(_ context.Context, status domain.Status, project string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Task{}
	for _, task := range m.tasks {
		if status != "" && task.Status != status {
			continue
		}
		if project != "" && task.Project != project {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

type sequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialIDs) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("task-%d", s.n)
}

type staticAnalyses struct {
	summary      string
	observations []string
}

func (s staticAnalyses) LatestSummary(context.Context, string) (string, bool, error) {
	return s.summary, s.summary != "", nil
}

func (s staticAnalyses) RecentObservations(context.Context, string, int) ([]string, error) {
	return s.observations, nil
}

// scriptedModel replays responses in order and records every request.
type scriptedModel struct {
	mu        sync.Mutex
	responses []llm.Response
	requests  []llm.Request
	block     chan struct{}
	entered   chan struct{}
	once      sync.Once
}

func (m *scriptedModel) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if m.block != nil {
		m.once.Do(func() { close(m.entered) })
		select {
		case <-m.block:
		case <-ctx.Done():
			return llm.Response{}, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return llm.Response{Text: "nothing to do"}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *scriptedModel) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
