// Package ai implements the AI completion collaborator: an OpenAI-compatible
// chat client plus the per-user guard rails (rate limiting, crisis handling,
// memory) in front of it.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/psyline/psybot/internal/config"
	"github.com/psyline/psybot/internal/models"
)

// Completion failure taxonomy. Callers substitute canned text for each kind;
// none of these may escape to the router.
var (
	ErrTimeout     = errors.New("ai: timeout")
	ErrRateLimited = errors.New("ai: rate limited")
	ErrService     = errors.New("ai: service error")
)

// Request is one completion call.
type Request struct {
	System      string
	Turns       []models.ChatTurn
	MaxTokens   int
	Temperature float32
}

// Completer is the text-completion collaborator. Implementations classify
// failures into ErrTimeout, ErrRateLimited or ErrService.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// OpenAIClient is a Completer over any OpenAI-compatible chat completions
// API (OpenRouter included, via BaseURL).
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient creates an OpenAIClient from config.
func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Complete performs one chat completion call.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.System,
	})
	for _, t := range req.Turns {
		messages = append(messages, openai.ChatCompletionMessage{Role: t.Role, Content: t.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrService)
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty completion", ErrService)
	}
	return reply, nil
}

// classify maps transport errors onto the failure taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", ErrService, err)
}
