package dto

import "time"

type AddInput struct {
	Title   string
	Project string
}

type ListInput struct {
	Status  string
	Project string
}

type TriggerInput struct {
	SessionID string
	At        time.Time
}

type TaskOutput struct {
	ID          string    `json:"id"`
	Project     string    `json:"project"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

type ReactOutput struct {
	Iterations int
	ToolCalls  int
	Reply      string
}
