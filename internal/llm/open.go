package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Options selects and configures a Completer.
type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Stats    *LLMStats
}

// Open builds the Completer for opts.Provider.
func Open(ctx context.Context, opts Options) (Completer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", opts.Provider)
	}
	switch strings.ToLower(opts.Provider) {
	case "", ProviderOpenRouter:
		return NewOpenRouterClient(opts.APIKey, opts.BaseURL, opts.Model, opts.Stats), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, opts.APIKey, opts.Model, opts.Stats)
	}
	return nil, fmt.Errorf("unknown provider %q", opts.Provider)
}
