package out

import (
	"context"
	"fmt"
	"strings"

	analysisout "worklens/internal/modules/analysis/port/out"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/llm"
)

type LLMModel struct {
	client    llm.Client
	maxTokens int
}

func NewLLMModel(client llm.Client, maxTokens int) analysisout.Model {
	return &LLMModel{client: client, maxTokens: maxTokens}
}

func (m *LLMModel) Analyze(ctx context.Context, prompt analysisout.Prompt) (string, error) {
	message := llm.Message{Role: llm.RoleUser, Content: prompt.User}
	for _, image := range prompt.Images {
		message.Images = append(message.Images, llm.Image{MediaType: "image/png", Data: image})
	}
	resp, err := m.client.Complete(ctx, llm.Request{
		System:      prompt.System,
		Messages:    []llm.Message{message},
		Temperature: prompt.Temperature,
		MaxTokens:   m.maxTokens,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty analysis", apperrors.ErrModelFormat)
	}
	return text, nil
}
