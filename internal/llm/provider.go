// Package llm talks to OpenAI-compatible chat completion endpoints.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("completion provider not configured")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Provider returns generated text for an ordered list of turns.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Recorder receives one observation per remote call. code is empty on success.
type Recorder interface {
	ObserveProvider(provider, code string, latency time.Duration)
}

// Endpoint describes one OpenAI-compatible backend.
type Endpoint struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
}

func (e Endpoint) configured() bool {
	return strings.TrimSpace(e.APIKey) != "" && strings.TrimSpace(e.BaseURL) != ""
}

// Config controls provider construction.
type Config struct {
	Mode       string
	Primary    Endpoint
	Secondary  Endpoint
	Timeout    time.Duration
	MaxRetries int
	Recorder   Recorder
}

func NewProvider(cfg Config) (Provider, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		return newAutoProvider(cfg), nil
	case "http":
		if !cfg.Primary.configured() && !cfg.Secondary.configured() {
			return nil, errors.New("an API key is required for http mode")
		}
		return newAutoProvider(cfg), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider mode %q", cfg.Mode)
	}
}

func newAutoProvider(cfg Config) Provider {
	var chain []Provider
	for _, ep := range []Endpoint{cfg.Primary, cfg.Secondary} {
		if ep.configured() {
			chain = append(chain, NewHTTPProvider(ep, HTTPOptions{
				Timeout:    cfg.Timeout,
				MaxRetries: cfg.MaxRetries,
				Recorder:   cfg.Recorder,
			}))
		}
	}
	switch len(chain) {
	case 0:
		return NewMockProvider()
	case 1:
		return chain[0]
	default:
		return NewFallbackProvider(chain[0], chain[1]).WithFallbackTimeout(cfg.Timeout)
	}
}

// Configured reports whether p can reach a real backend.
func Configured(p Provider) bool {
	if p == nil {
		return false
	}
	_, mock := p.(*MockProvider)
	return !mock
}

// StripCodeFence removes a surrounding ``` or ```json wrapper.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
