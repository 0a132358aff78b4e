package out

import (
	"context"
	"fmt"
	"time"

	"worklens/internal/modules/tasks/domain"
	tasksout "worklens/internal/modules/tasks/port/out"
	"worklens/internal/platform/entitystore"
)

const tasksCollection = "tasks"

type taskDocument struct {
	ID          string    `json:"id"`
	Project     string    `json:"project"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	CreatedNS   int64     `json:"created_ns"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

type SQLiteTaskStore struct {
	store *entitystore.Store
}

func NewSQLiteTaskStore(store *entitystore.Store) tasksout.TaskStore {
	return &SQLiteTaskStore{store: store}
}

func (s *SQLiteTaskStore) Add(ctx context.Context, task domain.Task) error {
	if err := s.store.Add(ctx, tasksCollection, task.ID, toDocument(task)); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *SQLiteTaskStore) Get(ctx context.Context, id string) (domain.Task, error) {
	doc := taskDocument{}
	if err := s.store.Get(ctx, tasksCollection, id, &doc); err != nil {
		return domain.Task{}, err
	}
	return fromDocument(doc), nil
}

func (s *SQLiteTaskStore) Save(ctx context.Context, task domain.Task) error {
	if err := s.store.Update(ctx, tasksCollection, task.ID, toDocument(task)); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (s *SQLiteTaskStore) List(ctx context.Context, status domain.Status, project string) ([]domain.Task, error) {
	q := entitystore.Query{SortBy: "created_ns", Order: entitystore.Asc}
	if status != "" {
		q.Where = append(q.Where, entitystore.Where("status", entitystore.Eq, string(status)))
	}
	if project != "" {
		q.Where = append(q.Where, entitystore.Where("project", entitystore.Eq, project))
	}
	docs, err := entitystore.QueryAs[taskDocument](ctx, s.store, tasksCollection, q)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	out := make([]domain.Task, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out, nil
}

func toDocument(task domain.Task) taskDocument {
	return taskDocument{
		ID:          task.ID,
		Project:     task.Project,
		Title:       task.Title,
		Status:      string(task.Status),
		CreatedNS:   task.CreatedAt.UTC().UnixNano(),
		CreatedAt:   task.CreatedAt.UTC(),
		StartedAt:   task.StartedAt.UTC(),
		CompletedAt: task.CompletedAt.UTC(),
	}
}

func fromDocument(doc taskDocument) domain.Task {
	task := domain.Task{
		ID:        doc.ID,
		Project:   doc.Project,
		Title:     doc.Title,
		Status:    domain.Status(doc.Status),
		CreatedAt: doc.CreatedAt.UTC(),
	}
	if !doc.StartedAt.IsZero() {
		task.StartedAt = doc.StartedAt.UTC()
	}
	if !doc.CompletedAt.IsZero() {
		task.CompletedAt = doc.CompletedAt.UTC()
	}
	return task
}
