package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"worklens/internal/modules/tasks/domain"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/llm"
)

const (
	ToolAddTask      = "add_task"
	ToolStartTask    = "start_task"
	ToolCompleteTask = "complete_task"
)

// Toolbox exposes the task manager to the model as callable tools.
type Toolbox struct {
	manager *TaskManager
}

func NewToolbox(manager *TaskManager) Toolbox {
	return Toolbox{manager: manager}
}

func (Toolbox) Definitions() []llm.Tool {
	taskID := map[string]any{"task_id": map[string]any{"type": "string", "description": "Id of an existing task."}}
	return []llm.Tool{
		{
			Name:        ToolAddTask,
			Description: "Add a new to-do task to a project.",
			Properties: map[string]any{
				"title":   map[string]any{"type": "string", "description": "Short imperative task title."},
				"project": map[string]any{"type": "string", "description": "Project the task belongs to."},
			},
			Required: []string{"title", "project"},
		},
		{Name: ToolStartTask, Description: "Mark a task as being worked on.", Properties: taskID, Required: []string{"task_id"}},
		{Name: ToolCompleteTask, Description: "Mark a task as completed.", Properties: taskID, Required: []string{"task_id"}},
	}
}

type toolArgs struct {
	Title   string `json:"title"`
	Project string `json:"project"`
	TaskID  string `json:"task_id"`
}

// Execute runs one tool call. The returned text is always meant for the
// model; the error only marks it as a failed call.
func (t Toolbox) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	args := toolArgs{}
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err), fmt.Errorf("%w: %s arguments", apperrors.ErrInvalidInput, call.Name)
		}
	}
	switch call.Name {
	case ToolAddTask:
		task, err := t.manager.Add(ctx, args.Title, args.Project)
		if err != nil {
			return fmt.Sprintf("Failed to add task '%s': %v", args.Title, err), err
		}
		return fmt.Sprintf("Task '%s' added to project '%s' with id '%s'.", task.Title, task.Project, task.ID), nil
	case ToolStartTask:
		return t.move(ctx, args.TaskID, domain.StatusDoing, "started")
	case ToolCompleteTask:
		return t.move(ctx, args.TaskID, domain.StatusCompleted, "completed")
	default:
		return fmt.Sprintf("Unknown tool '%s'.", call.Name), fmt.Errorf("%w: tool %q", apperrors.ErrInvalidInput, call.Name)
	}
}

func (t Toolbox) move(ctx context.Context, taskID string, next domain.Status, verb string) (string, error) {
	taskID = strings.TrimSpace(taskID)
	_, err := t.manager.Move(ctx, taskID, next)
	switch {
	case err == nil:
		return fmt.Sprintf("Task with id '%s' marked as %s.", taskID, verb), nil
	case errors.Is(err, apperrors.ErrNotFound):
		return fmt.Sprintf("Task with id '%s' not found.", taskID), err
	default:
		return fmt.Sprintf("Failed to mark task '%s' as %s: %v", taskID, verb, err), err
	}
}
