package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/claria/internal/reliability"
)

const (
	backoffBase = 200 * time.Millisecond
	backoffCap  = 2 * time.Second
)

// StatusError carries a non-2xx provider response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion http status %d: %s", e.Code, e.Body)
}

type HTTPOptions struct {
	Timeout    time.Duration
	MaxRetries int
	Recorder   Recorder
	Client     *http.Client
}

// HTTPProvider calls {BaseURL}/chat/completions with bearer auth.
type HTTPProvider struct {
	endpoint   Endpoint
	url        string
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	recorder   Recorder
}

func NewHTTPProvider(ep Endpoint, opts HTTPOptions) *HTTPProvider {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if ep.Name == "" {
		ep.Name = "completion"
	}
	return &HTTPProvider{
		endpoint:   ep,
		url:        strings.TrimRight(strings.TrimSpace(ep.BaseURL), "/") + "/chat/completions",
		client:     client,
		timeout:    timeout,
		maxRetries: max(opts.MaxRetries, 0),
		recorder:   opts.Recorder,
	}
}

func (p *HTTPProvider) Name() string { return p.endpoint.Name }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (p *HTTPProvider) Complete(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       p.endpoint.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			if err := reliability.Sleep(ctx, reliability.ExponentialBackoff(attempt-1, backoffBase, backoffCap)); err != nil {
				return "", err
			}
		}
		started := time.Now()
		text, err := p.once(ctx, payload)
		p.observe(err, time.Since(started))
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return "", lastErr
}

func (p *HTTPProvider) once(ctx context.Context, payload []byte) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.endpoint.APIKey)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded chatResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

func (p *HTTPProvider) observe(err error, d time.Duration) {
	if p.recorder == nil {
		return
	}
	p.recorder.ObserveProvider(p.endpoint.Name, errorCode(err), d)
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return reliability.IsRetryableHTTPStatus(statusErr.Code)
	}
	return reliability.IsRetryableTransportError(err)
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("http_%d", statusErr.Code)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "transport"
}
