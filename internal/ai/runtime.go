package ai

import (
	"context"
	"time"
)

// Prompt is one generation request: persona instructions plus the data context.
type Prompt struct {
	Instructions string
	Context      string
	MaxTokens    int
	Temperature  float64
}

// Generator produces text for a prompt. Implementations do not retry on behalf
// of callers beyond transient transport failures.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, p Prompt) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }

// Provider identifiers used across the CLI for selection.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Generation defaults.
const (
	DefaultGeminiModel = "gemini-2.0-flash-lite"
	DefaultMaxTokens   = 800
	DefaultTemperature = 0.7
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultRetryMax    = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 4 * time.Second
)
