package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient generates text with the Gemini API through the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient builds a Gemini client. baseURL overrides the API endpoint and
// is empty outside tests.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, p Prompt) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "text/plain",
	}
	if p.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(p.Temperature))
	}
	if p.MaxTokens > 0 {
		config.MaxOutputTokens = int32(p.MaxTokens)
	}
	if p.Instructions != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: p.Instructions}},
		}
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(p.Context), config)
	if err != nil {
		return "", classifyGenaiError(err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classifyGenaiError maps SDK API errors onto the package's typed errors.
func classifyGenaiError(err error) error {
	var ae genai.APIError
	if !errors.As(err, &ae) {
		return fmt.Errorf("gemini generation failed: %w", err)
	}
	apiErr := &APIError{StatusCode: ae.Code, Code: ae.Status, Message: ae.Message}
	return classifyAPIError(apiErr, http.Header{})
}
