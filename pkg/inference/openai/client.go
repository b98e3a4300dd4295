// Package openai provides a direct OpenAI-backed inference provider.
//
// It speaks the same contract as the sidecar: the assembled context is
// folded into a system prompt and the model is asked to answer with the
// response JSON. When the model returns plain text instead, the text
// becomes the reply and the suggestion and candidate lists stay empty.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tabzero/tabzero-go/pkg/inference"
)

// Client implements inference.Provider against the OpenAI chat API.
type Client struct {
	client *openai.Client
	model  string
}

// Config is the configuration for the OpenAI provider.
// APIKey: OpenAI API key (required)
// Model: model name, defaults to "gpt-4o-mini"
// BaseURL: API base URL, defaults to the OpenAI official address
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient creates a new OpenAI inference client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("NewOpenAIClient: API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Chat performs one chat completion. No retries.
func (c *Client) Chat(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.RecentMessages)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: buildSystemPrompt(req),
	})
	for _, msg := range req.RecentMessages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserMessage,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("Chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("Chat: no choices returned from OpenAI API")
	}

	return parseResponse(resp.Choices[0].Message.Content)
}

// Health checks API reachability with a model listing call.
func (c *Client) Health(ctx context.Context) (bool, error) {
	if _, err := c.client.ListModels(ctx); err != nil {
		return false, nil
	}
	return true, nil
}

// Close closes the client. The OpenAI SDK needs no explicit teardown.
func (c *Client) Close() error {
	return nil
}

// buildSystemPrompt folds mode, memories, and events into instructions.
// Message history travels as proper chat turns, not prompt text.
func buildSystemPrompt(req *inference.ChatRequest) string {
	var b strings.Builder
	b.WriteString("You are TabZero, a local desktop assistant. Current mode: ")
	b.WriteString(req.Mode)
	b.WriteString(".\n")

	if len(req.Memories) > 0 {
		b.WriteString("\nWhat you remember about the user:\n")
		for _, m := range req.Memories {
			fmt.Fprintf(&b, "- [%s] %s\n", m.Type, m.Content)
		}
	}
	if len(req.Events) > 0 {
		b.WriteString("\nRecent activity:\n")
		for _, e := range req.Events {
			fmt.Fprintf(&b, "- %s (%s mode)\n", e.AppName, e.Mode)
		}
	}

	b.WriteString("\nAnswer with a single JSON object: " +
		`{"reply": string, "suggestions": [{"title": string, "reason": string, ` +
		`"actions": [{"type": "start_timer"|"open_app"|"set_mode", "minutes"?: int, "app"?: string, "mode"?: string}]}], ` +
		`"memory_candidates": [{"type": string, "content": string, "confidence": number}]}` +
		"\nOnly include memory_candidates for durable facts about the user.")
	return b.String()
}

// parseResponse accepts either the contract JSON or plain text.
func parseResponse(content string) (*inference.ChatResponse, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if strings.HasPrefix(trimmed, "{") {
		var result inference.ChatResponse
		if err := json.Unmarshal([]byte(trimmed), &result); err == nil && result.Reply != "" {
			return &result, nil
		}
	}

	if trimmed == "" {
		return nil, errors.New("Chat: empty completion")
	}
	return &inference.ChatResponse{Reply: trimmed}, nil
}
