package llm

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	text  string
	err   error
	calls int
}

func (s *stubProvider) Complete(context.Context, Request) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestNewProviderModes(t *testing.T) {
	groq := Endpoint{Name: "groq", BaseURL: "https://api.groq.com/openai/v1", APIKey: "g"}
	openai := Endpoint{Name: "openai", BaseURL: "https://api.openai.com/v1", APIKey: "o"}

	p, err := NewProvider(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("NewProvider(auto) error = %v", err)
	}
	if _, ok := p.(*MockProvider); !ok {
		t.Fatalf("NewProvider(auto, no keys) = %T, want *MockProvider", p)
	}
	if Configured(p) {
		t.Fatalf("Configured(mock) = true, want false")
	}

	p, _ = NewProvider(Config{Mode: "auto", Primary: groq})
	if _, ok := p.(*HTTPProvider); !ok {
		t.Fatalf("NewProvider(auto, groq) = %T, want *HTTPProvider", p)
	}

	p, _ = NewProvider(Config{Mode: "AUTO", Primary: groq, Secondary: openai})
	fb, ok := p.(*FallbackProvider)
	if !ok {
		t.Fatalf("NewProvider(auto, both) = %T, want *FallbackProvider", p)
	}
	if fb.Primary().(*HTTPProvider).Name() != "groq" {
		t.Fatalf("primary = %q, want groq", fb.Primary().(*HTTPProvider).Name())
	}

	if _, err := NewProvider(Config{Mode: "http"}); err == nil {
		t.Fatalf("NewProvider(http, no keys) expected error")
	}
	if _, err := NewProvider(Config{Mode: "carrier-pigeon"}); err == nil {
		t.Fatalf("NewProvider(unknown) expected error")
	}
}

func TestFallbackProvider(t *testing.T) {
	primary := &stubProvider{err: errors.New("down")}
	secondary := &stubProvider{text: "ok"}
	p := NewFallbackProvider(primary, secondary)

	text, err := p.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "ok" || primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("text=%q primary=%d secondary=%d, want ok 1 1", text, primary.calls, secondary.calls)
	}

	secondary.err = errors.New("also down")
	if _, err := p.Complete(context.Background(), Request{}); err == nil {
		t.Fatalf("Complete() expected error when both fail")
	}
}

func TestMockProviderNotConfigured(t *testing.T) {
	_, err := NewMockProvider().Complete(context.Background(), Request{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Complete() error = %v, want ErrNotConfigured", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                   "{\"a\":1}",
		"```json\n{\"a\":1}\n```":     "{\"a\":1}",
		"```\n{\"a\":1}\n```":         "{\"a\":1}",
		"  ```json {\"a\":1}```  ":    "{\"a\":1}",
		"```JSON\n{\"a\":1}\n```\n\n": "{\"a\":1}",
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
