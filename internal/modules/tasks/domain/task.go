package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "worklens/internal/platform/errors"
)

type Status string

const (
	StatusToDo      Status = "to_do"
	StatusDoing     Status = "doing"
	StatusPaused    Status = "paused"
	StatusAbandoned Status = "abandoned"
	StatusCompleted Status = "completed"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusToDo, StatusDoing, StatusPaused, StatusAbandoned, StatusCompleted:
		return s, nil
	default:
		return "", fmt.Errorf("%w: task status %q", apperrors.ErrInvalidInput, raw)
	}
}

type Task struct {
	ID          string
	Project     string
	Title       string
	Status      Status
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

func NewTask(id, title, project string, now time.Time) (Task, error) {
	title = strings.TrimSpace(title)
	project = strings.TrimSpace(project)
	if id == "" {
		return Task{}, fmt.Errorf("%w: task id is required", apperrors.ErrInvalidInput)
	}
	if title == "" {
		return Task{}, fmt.Errorf("%w: task title is required", apperrors.ErrInvalidInput)
	}
	if project == "" {
		project = "inbox"
	}
	return Task{ID: id, Title: title, Project: project, Status: StatusToDo, CreatedAt: now.UTC()}, nil
}

var transitions = map[Status][]Status{
	StatusToDo:   {StatusDoing, StatusCompleted, StatusAbandoned},
	StatusDoing:  {StatusPaused, StatusCompleted, StatusAbandoned},
	StatusPaused: {StatusDoing, StatusCompleted, StatusAbandoned},
}

func (t Task) CanMoveTo(next Status) bool {
	for _, allowed := range transitions[t.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// MoveTo returns the task in the next status, stamping start and
// completion times on the way.
func (t Task) MoveTo(next Status, now time.Time) (Task, error) {
	if !t.CanMoveTo(next) {
		return Task{}, fmt.Errorf("%w: task %s cannot go from %s to %s", apperrors.ErrInvalidTransition, t.ID, t.Status, next)
	}
	now = now.UTC()
	switch next {
	case StatusDoing:
		if t.StartedAt.IsZero() {
			t.StartedAt = now
		}
	case StatusCompleted:
		t.CompletedAt = now
	}
	t.Status = next
	return t, nil
}
