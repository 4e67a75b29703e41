package ai

import (
	"context"
	"errors"
	"strings"
	"time"
)

const defaultOllamaHost = "http://127.0.0.1:11434"

// OllamaClient generates drafts with a local Ollama runtime.
type OllamaClient struct {
	transport
	host  string
	model string
}

// NewOllamaClient creates a new client targeting the given host (e.g., http://127.0.0.1:11434).
func NewOllamaClient(host, model string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *OllamaClient {
	if host == "" {
		host = defaultOllamaHost
	}
	host = strings.TrimRight(host, "/")
	c := &OllamaClient{
		transport: newTransport(httpTimeout, retryMax, baseDelay, maxDelay),
		host:      host,
		model:     model,
	}
	c.netErr = func(err error) error { return &UnreachableError{Host: host, Err: err} }
	return c
}

// Structures aligned with Ollama /api/chat (non-streaming)
type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

func (c *OllamaClient) Generate(ctx context.Context, p Prompt) (string, error) {
	if c.model == "" {
		return "", errors.New("model cannot be empty")
	}
	req := ollamaChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: p.Instructions},
			{Role: "user", Content: p.Context},
		},
		Options: map[string]any{},
	}
	if p.Temperature > 0 {
		req.Options["temperature"] = p.Temperature
	}
	if p.MaxTokens > 0 {
		req.Options["num_predict"] = p.MaxTokens
	}
	var out ollamaChatResponse
	if err := c.postJSON(ctx, c.host+"/api/chat", req, &out); err != nil {
		return "", err
	}
	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
