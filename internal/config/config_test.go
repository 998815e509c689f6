package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ConversationTTL != 300*time.Second {
		t.Fatalf("ConversationTTL = %v, want %v", cfg.ConversationTTL, 300*time.Second)
	}
	if cfg.ConversationBackend != "memory" {
		t.Fatalf("ConversationBackend = %q, want %q", cfg.ConversationBackend, "memory")
	}
	if cfg.LLMMode != "auto" {
		t.Fatalf("LLMMode = %q, want %q", cfg.LLMMode, "auto")
	}
	if cfg.CalendarTimezone != "America/Mexico_City" {
		t.Fatalf("CalendarTimezone = %q, want America/Mexico_City", cfg.CalendarTimezone)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty default", cfg.DatabaseURL)
	}
}

func TestLoadRejectsShortConversationTTL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CONVERSATION_TTL", "1s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for CONVERSATION_TTL=1s")
	}
}

func TestLoadRedisBackendRequiresAddr(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CONVERSATION_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error without REDIS_ADDR")
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("RedisAddr = %q, want localhost:6379", cfg.RedisAddr)
	}
}

func TestLoadRejectsUnknownNormalizer(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("DATETIME_NORMALIZER", "magic")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for DATETIME_NORMALIZER=magic")
	}
}

func TestLoadRejectsBadBool(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "maybe")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for APP_ALLOW_ANY_ORIGIN=maybe")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_LOG_LEVEL",
		"APP_LOG_FORMAT",
		"APP_ALLOW_ANY_ORIGIN",
		"CONVERSATION_TTL",
		"CONVERSATION_BACKEND",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"DATABASE_URL",
		"CHAT_HISTORY_TURNS",
		"LLM_MODE",
		"LLM_TIMEOUT",
		"LLM_MAX_RETRIES",
		"GROQ_API_KEY",
		"GROQ_BASE_URL",
		"GROQ_MODEL",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_MODEL",
		"DATETIME_NORMALIZER",
		"CALENDAR_TIMEZONE",
		"CALENDAR_EVENT_DURATION",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadChatHistoryTurns(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChatHistoryTurns != 6 {
		t.Fatalf("ChatHistoryTurns = %d, want 6", cfg.ChatHistoryTurns)
	}

	t.Setenv("CHAT_HISTORY_TURNS", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for CHAT_HISTORY_TURNS=-1")
	}
}
