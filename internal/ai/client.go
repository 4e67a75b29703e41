package ai

import (
	"context"
	"errors"
	"strings"
	"time"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Client talks to the OpenRouter chat completions API.
type Client struct {
	transport
	apiKey  string
	baseURL string
	model   string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the OpenRouter chat completions payload.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

// ChatResponse is the subset of the completions response the client reads.
type ChatResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(apiKey, model string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	c := &Client{
		transport: newTransport(httpTimeout, retryMax, baseDelay, maxDelay),
		apiKey:    apiKey,
		baseURL:   openRouterBaseURL,
		model:     model,
	}
	c.headers["Authorization"] = "Bearer " + apiKey
	c.headers["HTTP-Referer"] = "https://github.com/KaramelBytes/salesloom-cli"
	c.headers["X-Title"] = "SalesLoom CLI"
	return c
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(apiKey, model string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, model, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// Complete sends one chat completion request.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	var out ChatResponse
	if err := c.postJSON(ctx, c.baseURL+"/chat/completions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Generate sends the persona instructions as the system message and the data
// context as the user message.
func (c *Client) Generate(ctx context.Context, p Prompt) (string, error) {
	resp, err := c.Complete(ctx, ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: p.Instructions},
			{Role: "user", Content: p.Context},
		},
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
