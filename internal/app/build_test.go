package app

import (
	"context"
	"testing"
	"time"

	"github.com/antoniostano/claria/internal/assistant"
	"github.com/antoniostano/claria/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		MetricsNamespace:      "test_app_" + time.Now().Format("150405000000"),
		LogLevel:              "info",
		LogFormat:             "text",
		ConversationBackend:   "memory",
		ConversationTTL:       300 * time.Second,
		LLMMode:               "mock",
		LLMTimeout:            time.Second,
		DateTimeNormalizer:    "auto",
		CalendarTimezone:      "America/Mexico_City",
		CalendarEventDuration: time.Hour,
	}
}

func TestBuildInMemory(t *testing.T) {
	res, err := Build(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer res.Cleanup()

	if res.ProviderConfigured {
		t.Fatalf("ProviderConfigured = true, want false in mock mode")
	}
	reply, err := res.Assistant.HandleMessage(context.Background(), "u1", "anota revisar el contrato")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply.Action != assistant.ActionTask {
		t.Fatalf("Action = %q, want %q", reply.Action, assistant.ActionTask)
	}
	if list, _ := res.Tasks.List(context.Background(), "u1"); len(list) != 1 {
		t.Fatalf("stored tasks = %d, want 1", len(list))
	}
}

func TestBuildRejectsUnknownNormalizer(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsNamespace += "_bad"
	cfg.DateTimeNormalizer = "magic"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("Build() error = nil, want normalizer error")
	}
}

func TestConfigureLogging(t *testing.T) {
	cfg := testConfig()
	cfg.LogFormat = "json"
	if err := ConfigureLogging(cfg); err != nil {
		t.Fatalf("ConfigureLogging(json) error = %v", err)
	}
	cfg.LogFormat = "xml"
	if err := ConfigureLogging(cfg); err == nil {
		t.Fatalf("ConfigureLogging(xml) error = nil")
	}
	cfg.LogFormat = "text"
	cfg.LogLevel = "loud"
	if err := ConfigureLogging(cfg); err == nil {
		t.Fatalf("ConfigureLogging(loud) error = nil")
	}
}
