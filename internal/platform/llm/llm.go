package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"worklens/internal/platform/config"
	apperrors "worklens/internal/platform/errors"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type Image struct {
	MediaType string
	Data      []byte
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Message is one conversation turn. Tool results use RoleTool with
// ToolCallID set; assistant turns that requested tools carry ToolCalls.
type Message struct {
	Role       Role
	Content    string
	Images     []Image
	ToolCalls  []ToolCall
	ToolCallID string
	IsError    bool
}

type Tool struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}

type Request struct {
	System      string
	Messages    []Message
	Tools       []Tool
	Temperature float64
	MaxTokens   int
}

type Response struct {
	Text      string
	ToolCalls []ToolCall
}

type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

func New(cfg config.Model) (Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("%w: model provider %q", apperrors.ErrInvalidInput, cfg.Provider)
	}
}

// classifyStatus maps an HTTP status from a provider onto the model error kinds.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.ErrModelAuth
	case status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
		return apperrors.ErrModelFormat
	default:
		return apperrors.ErrModelConnection
	}
}

func classifyTransport(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", apperrors.ErrModelConnection, provider, err)
	}
	return fmt.Errorf("%w: %s: %v", apperrors.ErrModelConnection, provider, err)
}

func emptyResponse(provider string) error {
	return fmt.Errorf("%w: %s returned no content", apperrors.ErrModelFormat, provider)
}
