package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"worklens/internal/modules/tasks/domain"
	tasksout "worklens/internal/modules/tasks/port/out"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/llm"

	"go.uber.org/zap"
)

//go:embed prompts/react.tmpl
var promptFS embed.FS

var reactPrompt = template.Must(template.ParseFS(promptFS, "prompts/react.tmpl"))

const recentObservations = 5

type ReactorSettings struct {
	MaxIterations int
	Temperature   float64
	MaxTokens     int
}

type Reaction struct {
	Iterations int
	ToolCalls  int
	Reply      string
}

// TaskReactor lets the model adjust the task list after a medium-term
// summary. Only one loop runs at a time.
type TaskReactor struct {
	settings ReactorSettings
	manager  *TaskManager
	tools    Toolbox
	analyses tasksout.AnalysisReader
	model    tasksout.Model
	guard    *domain.ReactorGuard
	logger   *zap.Logger
}

func NewTaskReactor(settings ReactorSettings, manager *TaskManager, analyses tasksout.AnalysisReader, model tasksout.Model, logger *zap.Logger) *TaskReactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskReactor{
		settings: settings,
		manager:  manager,
		tools:    NewToolbox(manager),
		analyses: analyses,
		model:    model,
		guard:    domain.NewReactorGuard(settings.MaxIterations),
		logger:   logger.Named("task_reactor"),
	}
}

func (r *TaskReactor) React(ctx context.Context, sessionID string) (Reaction, error) {
	if err := r.guard.Begin(); err != nil {
		r.logger.Info("task reaction skipped, previous loop still running", zap.String("session_id", sessionID))
		return Reaction{}, err
	}
	defer r.guard.Finish()
	logger := r.logger.With(zap.String("session_id", sessionID))

	system, user, ok, err := r.prompt(ctx, sessionID)
	if err != nil {
		return Reaction{}, err
	}
	if !ok {
		logger.Debug("no summary to react to")
		return Reaction{}, nil
	}

	messages := []llm.Message{{Role: llm.RoleUser, Content: user}}
	reaction := Reaction{}
	for {
		iteration, err := r.guard.Next()
		if err != nil {
			logger.Warn("task tool loop exhausted", zap.Int("iterations", reaction.Iterations))
			return reaction, err
		}
		reaction.Iterations = iteration
		resp, err := r.model.Complete(ctx, llm.Request{
			System:      system,
			Messages:    messages,
			Tools:       r.tools.Definitions(),
			Temperature: r.settings.Temperature,
			MaxTokens:   r.settings.MaxTokens,
		})
		if err != nil {
			return reaction, fmt.Errorf("%w: task reaction: %w", apperrors.ErrAnalysis, err)
		}
		if len(resp.ToolCalls) == 0 {
			reaction.Reply = strings.TrimSpace(resp.Text)
			logger.Info("task reaction finished", zap.Int("iterations", reaction.Iterations), zap.Int("tool_calls", reaction.ToolCalls))
			return reaction, nil
		}
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			reaction.ToolCalls++
			result, callErr := r.tools.Execute(ctx, call)
			if callErr != nil {
				logger.Warn("task tool failed", zap.String("tool", call.Name), zap.Error(callErr))
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: result, IsError: callErr != nil})
		}
	}
}

type reactContext struct {
	Summary      string
	Observations []string
	ToDo         string
	Doing        string
}

func (r *TaskReactor) prompt(ctx context.Context, sessionID string) (system, user string, ok bool, err error) {
	summary, found, err := r.analyses.LatestSummary(ctx, sessionID)
	if err != nil {
		return "", "", false, fmt.Errorf("read latest summary: %w", err)
	}
	if !found {
		return "", "", false, nil
	}
	observations, err := r.analyses.RecentObservations(ctx, sessionID, recentObservations)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return "", "", false, fmt.Errorf("read recent observations: %w", err)
	}
	data := reactContext{Summary: summary, Observations: observations}
	if data.ToDo, err = r.statusList(ctx, domain.StatusToDo); err != nil {
		return "", "", false, err
	}
	if data.Doing, err = r.statusList(ctx, domain.StatusDoing); err != nil {
		return "", "", false, err
	}
	var sys, usr bytes.Buffer
	if err := reactPrompt.ExecuteTemplate(&sys, "system", data); err != nil {
		return "", "", false, fmt.Errorf("render task prompt: %w", err)
	}
	if err := reactPrompt.ExecuteTemplate(&usr, "user", data); err != nil {
		return "", "", false, fmt.Errorf("render task prompt: %w", err)
	}
	return sys.String(), usr.String(), true, nil
}

func (r *TaskReactor) statusList(ctx context.Context, status domain.Status) (string, error) {
	tasks, err := r.manager.List(ctx, status, "")
	if err != nil {
		return "", fmt.Errorf("list %s tasks: %w", status, err)
	}
	return FormatStatusList(status, tasks), nil
}

func FormatStatusList(status domain.Status, tasks []domain.Task) string {
	if len(tasks) == 0 {
		return fmt.Sprintf("No tasks found with status '%s'.", status)
	}
	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, fmt.Sprintf("Tasks with status '%s':", status))
	for _, task := range tasks {
		lines = append(lines, fmt.Sprintf("- %s (ID: %s, Project: %s)", task.Title, task.ID, task.Project))
	}
	return strings.Join(lines, "\n")
}
