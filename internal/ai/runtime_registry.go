package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RuntimeFactory builds a Generator from the generic config below.
type RuntimeFactory func(ctx context.Context, cfg RuntimeConfig) (Generator, error)

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[strings.ToLower(name)] = f }

// Providers lists registered provider names in sorted order.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GetRuntime creates a Generator for the given provider.
func GetRuntime(ctx context.Context, name string, cfg RuntimeConfig) (Generator, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", name, strings.Join(Providers(), ", "))
	}
	return f(ctx, cfg)
}

func init() {
	RegisterRuntime(ProviderGemini, func(ctx context.Context, c RuntimeConfig) (Generator, error) {
		return NewGeminiClient(ctx, c.APIKey, c.Model, c.BaseURL)
	})
	RegisterRuntime(ProviderOpenRouter, func(_ context.Context, c RuntimeConfig) (Generator, error) {
		if c.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewClientWithBaseURL(c.APIKey, c.Model, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay, c.BaseURL), nil
	})
	RegisterRuntime(ProviderOllama, func(_ context.Context, c RuntimeConfig) (Generator, error) {
		if c.RetryMax <= 0 {
			c.RetryMax = 2
		}
		if c.BaseDelay <= 0 {
			c.BaseDelay = 200 * time.Millisecond
		}
		if c.MaxDelay <= 0 {
			c.MaxDelay = time.Second
		}
		return NewOllamaClient(c.BaseURL, c.Model, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay), nil
	})
}
