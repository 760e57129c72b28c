// Package openai implements the LLM gateway against an OpenAI-compatible
// chat-completions endpoint (Groq by default).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"pawfect/internal/config"
	"pawfect/internal/domain"
	"pawfect/internal/domain/models"
	llmSvc "pawfect/internal/domain/services/llm"
)

// replyPath locates the first choice's text in a chat-completions response.
const replyPath = "choices.0.message.content"

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 2048

// Config holds the fixed settings of a Client.
type Config struct {
	Endpoint     string
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	HTTPClient   *http.Client // Optional; built from Timeout when nil
}

// Client implements llm.Gateway. It is safe for concurrent use and keeps no
// state between calls.
type Client struct {
	endpoint     string
	apiKey       string
	model        string
	systemPrompt string
	httpClient   *http.Client
	logger       *slog.Logger
}

var _ llmSvc.Gateway = (*Client)(nil)

// NewClient validates cfg and creates a gateway client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("LLM endpoint is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("LLM model is required")
	}
	if cfg.SystemPrompt == "" {
		return nil, errors.New("system prompt is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// completionRequest is the outbound request body.
type completionRequest struct {
	Model     string               `json:"model"`
	MaxTokens int                  `json:"max_tokens"`
	Messages  []models.ChatMessage `json:"messages"`
}

// Chat sends the system prompt followed by messages and returns the first choice's text.
func (c *Client) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	body, err := json.Marshal(c.buildRequest(messages))
	if err != nil {
		return "", &domain.UpstreamError{Op: "encode completion request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &domain.UpstreamError{Op: "build completion request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.UpstreamError{Op: "send completion request", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.UpstreamError{Op: "read completion response", StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("completion response received",
		"status", resp.StatusCode,
		"model", c.model,
		"messages", len(messages),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.UpstreamError{
			Op:         "completion request",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", truncate(payload, maxErrorBody)),
		}
	}

	return parseReply(payload, resp.StatusCode)
}

// buildRequest prepends the system prompt; the caller's messages follow unchanged.
func (c *Client) buildRequest(messages []models.ChatMessage) completionRequest {
	outbound := make([]models.ChatMessage, 0, len(messages)+1)
	outbound = append(outbound, models.ChatMessage{Role: models.RoleSystem, Content: c.systemPrompt})
	outbound = append(outbound, messages...)

	return completionRequest{
		Model:     c.model,
		MaxTokens: config.LLMMaxTokens,
		Messages:  outbound,
	}
}

func parseReply(payload []byte, status int) (string, error) {
	if !gjson.ValidBytes(payload) {
		return "", &domain.UpstreamError{
			Op:         "parse completion response",
			StatusCode: status,
			Err:        errors.New("response body is not valid JSON"),
		}
	}

	reply := gjson.GetBytes(payload, replyPath)
	if !reply.Exists() || reply.Type != gjson.String {
		return "", &domain.UpstreamError{
			Op:         "parse completion response",
			StatusCode: status,
			Err:        fmt.Errorf("missing string at %s", replyPath),
		}
	}

	return reply.String(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
