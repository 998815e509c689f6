package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultFallbackTimeout = 8 * time.Second

// FallbackProvider attempts a primary provider first and falls back on error.
// When the primary exhausts the caller's deadline, the fallback gets its own
// budget instead of inheriting an already expired context.
type FallbackProvider struct {
	primary  Provider
	fallback Provider
	timeout  time.Duration
}

func NewFallbackProvider(primary Provider, fallback Provider) *FallbackProvider {
	return &FallbackProvider{
		primary:  primary,
		fallback: fallback,
		timeout:  defaultFallbackTimeout,
	}
}

// WithFallbackTimeout bounds the fallback attempt made after the caller's
// deadline has passed.
func (p *FallbackProvider) WithFallbackTimeout(d time.Duration) *FallbackProvider {
	if d > 0 {
		p.timeout = d
	}
	return p
}

// Primary returns the preferred provider used before fallback.
func (p *FallbackProvider) Primary() Provider {
	if p == nil {
		return nil
	}
	return p.primary
}

// Secondary returns the fallback provider.
func (p *FallbackProvider) Secondary() Provider {
	if p == nil {
		return nil
	}
	return p.fallback
}

func (p *FallbackProvider) Complete(ctx context.Context, req Request) (string, error) {
	if p == nil || p.primary == nil {
		if p != nil && p.fallback != nil {
			return p.fallback.Complete(ctx, req)
		}
		return "", fmt.Errorf("fallback provider misconfigured")
	}
	text, err := p.primary.Complete(ctx, req)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return "", err
	}
	if p.fallback == nil {
		return "", err
	}

	fallbackCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		fallbackCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
	}
	fallbackText, fallbackErr := p.fallback.Complete(fallbackCtx, req)
	if fallbackErr != nil {
		return "", fmt.Errorf("primary provider error: %w; fallback provider error: %v", err, fallbackErr)
	}
	return fallbackText, nil
}
