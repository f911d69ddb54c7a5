package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pagesmith/internal/logger"
	"pagesmith/internal/model"
)

const DefaultTimeout = 30 * time.Second

// Result is the explicit outcome of a chain call: either Text from Provider,
// or Err describing why every provider failed.
type Result struct {
	Text     string
	Provider string
	Err      *model.ProviderError
}

func (r Result) OK() bool { return r.Err == nil }

// Chain tries providers in preference order, each once, with a per-call timeout.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *logger.Logger
}

func NewChain(providers []Provider, timeout time.Duration, log *logger.Logger) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Chain{providers: providers, timeout: timeout, logger: log}
}

// Configured reports whether at least one provider is available.
func (c *Chain) Configured() bool {
	return c != nil && len(c.providers) > 0
}

func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

func (c *Chain) Complete(ctx context.Context, req Request) Result {
	if !c.Configured() {
		return Result{Err: &model.ProviderError{Reason: "unavailable", Err: ErrNotConfigured}}
	}

	var last *model.ProviderError
	for _, p := range c.providers {
		text, err := c.call(ctx, p, req)
		if err == nil {
			return Result{Text: text, Provider: p.Name()}
		}
		last = classify(p.Name(), err)
		c.logger.Warn("provider call failed", "provider", p.Name(), "reason", last.Reason, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return Result{Err: last}
}

func (c *Chain) call(ctx context.Context, p Provider, req Request) (text string, err error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()

	raw, err := p.Complete(cctx, req)
	if err != nil {
		if cctx.Err() != nil && ctx.Err() == nil {
			return "", fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return "", err
	}
	return Normalize(raw)
}

func classify(name string, err error) *model.ProviderError {
	reason := "call failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.Is(err, context.Canceled):
		reason = "cancelled"
	case errors.Is(err, ErrRefusal):
		reason = "refusal"
	case errors.Is(err, ErrEmptyResponse):
		reason = "empty response"
	}
	return &model.ProviderError{Provider: name, Reason: reason, Err: err}
}
