package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const defaultAnthropicMaxTokens = 2048

// Anthropic calls the Messages API through llmkit.
type Anthropic struct {
	apiKey string
	model  string
}

func NewAnthropic(apiKey, model string) *Anthropic {
	return &Anthropic{apiKey: apiKey, model: model}
}

func (p *Anthropic) Name() string { return "anthropic" }

type anthropicReply struct {
	text string
	err  error
}

// Complete runs the blocking llmkit call in a goroutine so ctx cancellation
// and deadlines are honored.
func (p *Anthropic) Complete(ctx context.Context, r Request) (string, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return "", fmt.Errorf("anthropic api key is required")
	}
	settings := types.RequestSettings{
		Model:       p.model,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = defaultAnthropicMaxTokens
	}

	done := make(chan anthropicReply, 1)
	go func() {
		response, err := anthropic.PromptWithSettings(r.System, r.Prompt, "", p.apiKey, settings)
		if err != nil {
			done <- anthropicReply{err: err}
			return
		}
		if len(response.Content) == 0 {
			done <- anthropicReply{err: ErrEmptyResponse}
			return
		}
		done <- anthropicReply{text: response.Content[0].Text}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case reply := <-done:
		return reply.text, reply.err
	}
}
