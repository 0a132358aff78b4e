package out

import (
	"context"

	"worklens/internal/modules/tasks/domain"
	"worklens/internal/platform/llm"
)

type TaskStore interface {
	Add(ctx context.Context, task domain.Task) error
	Get(ctx context.Context, id string) (domain.Task, error)
	Save(ctx context.Context, task domain.Task) error
	// List filters on the non-empty fields, oldest first.
	List(ctx context.Context, status domain.Status, project string) ([]domain.Task, error)
}

type AnalysisReader interface {
	LatestSummary(ctx context.Context, sessionID string) (string, bool, error)
	RecentObservations(ctx context.Context, sessionID string, limit int) ([]string, error)
}

type Model interface {
	Complete(ctx context.Context, req llm.Request) (llm.Response, error)
}
