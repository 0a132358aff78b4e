package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"worklens/internal/platform/config"
	apperrors "worklens/internal/platform/errors"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"
)

func TestClassifyStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status int
		want   error
	}{
		{401, apperrors.ErrModelAuth},
		{403, apperrors.ErrModelAuth},
		{400, apperrors.ErrModelFormat},
		{422, apperrors.ErrModelFormat},
		{429, apperrors.ErrModelConnection},
		{503, apperrors.ErrModelConnection},
	}
	for _, tc := range cases {
		if got := classifyStatus(tc.status); !errors.Is(got, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, got)
		}
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	t.Parallel()
	if _, err := New(config.Model{Provider: "local"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestOpenAICompleteParsesToolCalls(t *testing.T) {
	t.Parallel()
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"add_task","arguments":"{\"title\":\"Write notes\",\"project\":\"docs\"}"}}]}}]}`)
	}))
	defer server.Close()

	client := NewOpenAI(config.Model{Name: "m", APIKey: "k", BaseURL: server.URL + "/"}, openaioption.WithMaxRetries(0))
	resp, err := client.Complete(context.Background(), Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
		Tools:    []Tool{{Name: "add_task", Description: "add", Properties: map[string]any{"title": map[string]any{"type": "string"}}, Required: []string{"title"}}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "add_task" || resp.ToolCalls[0].ID != "call_1" {
		t.Fatalf("unexpected tool calls: %+v", resp.ToolCalls)
	}
	args := map[string]string{}
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &args); err != nil || args["project"] != "docs" {
		t.Fatalf("unexpected arguments: %s", resp.ToolCalls[0].Arguments)
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %v", captured["messages"])
	}
}

func TestOpenAICompleteClassifiesAuthFailure(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewOpenAI(config.Model{Name: "m", APIKey: "k", BaseURL: server.URL + "/"}, openaioption.WithMaxRetries(0))
	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !errors.Is(err, apperrors.ErrModelAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("provider message dropped: %v", err)
	}
}

func TestAnthropicCompleteKeepsProviderMessage(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens is too large"}}`)
	}))
	defer server.Close()

	client := NewAnthropic(config.Model{Name: "m", APIKey: "k", BaseURL: server.URL + "/"}, anthropicoption.WithMaxRetries(0))
	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !errors.Is(err, apperrors.ErrModelFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
	if !strings.Contains(err.Error(), "max_tokens is too large") {
		t.Fatalf("provider message dropped: %v", err)
	}
}

func TestAnthropicCompleteParsesTextAndToolUse(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"Starting it."},{"type":"tool_use","id":"tu_1","name":"start_task","input":{"task_id":"t1"}}],"stop_reason":"tool_use","usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer server.Close()

	client := NewAnthropic(config.Model{Name: "m", APIKey: "k", BaseURL: server.URL + "/"}, anthropicoption.WithMaxRetries(0))
	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "tu_0", Name: "add_task", Arguments: json.RawMessage(`{"title":"x"}`)}}},
			{Role: RoleTool, ToolCallID: "tu_0", Content: "ok"},
		},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != "Starting it." {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "start_task" {
		t.Fatalf("unexpected tool calls: %+v", resp.ToolCalls)
	}
}

func TestAnthropicCompleteRejectsEmptyContent(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer server.Close()

	client := NewAnthropic(config.Model{Name: "m", APIKey: "k", BaseURL: server.URL + "/"}, anthropicoption.WithMaxRetries(0))
	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !errors.Is(err, apperrors.ErrModelFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}
