package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pagesmith/internal/logger"
)

type Options struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
}

var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"gemini":    "gemini-2.5-flash",
	"anthropic": "claude-sonnet-4-5",
}

func New(ctx context.Context, opts Options) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Name))
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModels[name]
	}

	switch name {
	case "openai":
		return NewOpenAI(opts.APIKey, model, opts.BaseURL), nil
	case "gemini":
		return NewGemini(ctx, opts.APIKey, model)
	case "anthropic":
		return NewAnthropic(opts.APIKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Name)
	}
}

// BuildChain creates providers in preference order. Entries without an API
// key are skipped, so an empty chain means pattern-based generation only.
func BuildChain(ctx context.Context, entries []Options, timeout time.Duration, log *logger.Logger) (*Chain, error) {
	if log == nil {
		log = logger.Nop()
	}
	var providers []Provider
	for _, opts := range entries {
		if strings.TrimSpace(opts.APIKey) == "" {
			log.Debug("provider skipped, no api key", "provider", opts.Name)
			continue
		}
		p, err := New(ctx, opts)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewChain(providers, timeout, log), nil
}
