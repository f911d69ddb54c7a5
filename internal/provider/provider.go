package provider

import (
	"context"
	"errors"
)

// Request is one text-generation call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Provider is an external text-generation backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

var (
	ErrRefusal       = errors.New("model refused the request")
	ErrEmptyResponse = errors.New("empty model response")
	ErrNotConfigured = errors.New("no provider configured")
)

// Func adapts a function to Provider; tests use it for fakes.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, req Request) (string, error)
}

func (f Func) Name() string { return f.ProviderName }

func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f.Fn(ctx, req)
}
