// Package oracle adapts external language-model services into the closed
// label and slot results the agent consumes.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apphttp "restaurant-agent/internal/common/http"
	"restaurant-agent/internal/common/logger"
)

var (
	// ErrUpstream marks failures of the remote service itself: transport
	// errors, non-2xx statuses and provider-side rejections.
	ErrUpstream             = errors.New("UPSTREAM_SERVICE_FAILURE")
	ErrEmptyCompletion      = errors.New("EMPTY_COMPLETION")
	ErrSlotExtractionFailed = errors.New("SLOT_EXTRACTION_FAILED")
)

// Backend sends one prompt and returns the raw completion text.
type Backend interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPBackend talks to a chat-completions style endpoint.
type HTTPBackend struct {
	client   *apphttp.Client
	endpoint string
	model    string
	logger   logger.Logger
}

func NewHTTPBackend(cfg HTTPConfig, log logger.Logger) *HTTPBackend {
	return &HTTPBackend{
		client:   apphttp.NewClient(cfg.Timeout, apphttp.WithBearerToken(cfg.APIKey)),
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/v1/chat/completions",
		model:    cfg.Model,
		logger:   log.With(map[string]interface{}{"component": "oracle.http", "model": cfg.Model}),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (b *HTTPBackend) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	resp, err := b.client.PostJSON(ctx, b.endpoint, chatRequest{
		Model:     b.model,
		MaxTokens: maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	b.logger.Debug("completion received", map[string]interface{}{
		"status":     resp.StatusCode,
		"durationMs": time.Since(start).Milliseconds(),
	})

	if !resp.OK() {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(resp.Body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return parsed.Choices[0].Message.Content, nil
}
