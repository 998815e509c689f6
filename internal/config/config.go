package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the task assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogLevel         string
	LogFormat        string

	AllowAnyOrigin bool

	ConversationTTL     time.Duration
	ConversationBackend string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int

	DatabaseURL string

	ChatHistoryTurns int

	LLMMode       string
	LLMTimeout    time.Duration
	LLMMaxRetries int
	GroqAPIKey    string
	GroqBaseURL   string
	GroqModel     string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	DateTimeNormalizer string

	CalendarTimezone      string
	CalendarEventDuration time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", ":10000"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "claria"),
		LogLevel:            envOrDefault("APP_LOG_LEVEL", "info"),
		LogFormat:           envOrDefault("APP_LOG_FORMAT", "text"),
		ConversationBackend: envOrDefault("CONVERSATION_BACKEND", "memory"),
		RedisAddr:           stringsTrimSpace("REDIS_ADDR"),
		RedisPassword:       stringsTrimSpace("REDIS_PASSWORD"),
		DatabaseURL:         stringsTrimSpace("DATABASE_URL"),
		LLMMode:             envOrDefault("LLM_MODE", "auto"),
		GroqAPIKey:          stringsTrimSpace("GROQ_API_KEY"),
		GroqBaseURL:         envOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:           envOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
		OpenAIAPIKey:        stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIBaseURL:       envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:         envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		DateTimeNormalizer:  envOrDefault("DATETIME_NORMALIZER", "auto"),
		// Invites are rendered with a TZID; the operator base is Mexico City.
		CalendarTimezone:      envOrDefault("CALENDAR_TIMEZONE", "America/Mexico_City"),
		CalendarEventDuration: time.Hour,
		ShutdownTimeout:       15 * time.Second,
		ConversationTTL:       300 * time.Second,
		LLMTimeout:            8 * time.Second,
		LLMMaxRetries:         2,
		ChatHistoryTurns:      6,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ConversationTTL, err = durationFromEnv("CONVERSATION_TTL", cfg.ConversationTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CalendarEventDuration, err = durationFromEnv("CALENDAR_EVENT_DURATION", cfg.CalendarEventDuration)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMMaxRetries, err = intFromEnv("LLM_MAX_RETRIES", cfg.LLMMaxRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.ChatHistoryTurns, err = intFromEnv("CHAT_HISTORY_TURNS", cfg.ChatHistoryTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.RedisDB, err = intFromEnv("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	cfg.ConversationBackend = strings.ToLower(cfg.ConversationBackend)
	cfg.LLMMode = strings.ToLower(cfg.LLMMode)
	cfg.DateTimeNormalizer = strings.ToLower(cfg.DateTimeNormalizer)

	if cfg.ConversationTTL < 5*time.Second {
		return Config{}, fmt.Errorf("CONVERSATION_TTL must be at least 5s")
	}
	if cfg.LLMTimeout <= 0 {
		return Config{}, fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if cfg.LLMMaxRetries < 0 {
		return Config{}, fmt.Errorf("LLM_MAX_RETRIES must be >= 0")
	}
	if cfg.ChatHistoryTurns < 0 {
		return Config{}, fmt.Errorf("CHAT_HISTORY_TURNS must be >= 0")
	}
	if cfg.CalendarEventDuration < time.Minute {
		return Config{}, fmt.Errorf("CALENDAR_EVENT_DURATION must be at least 1m")
	}
	switch cfg.ConversationBackend {
	case "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			return Config{}, fmt.Errorf("REDIS_ADDR is required when CONVERSATION_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("invalid CONVERSATION_BACKEND: %q (expected memory|redis)", cfg.ConversationBackend)
	}
	switch cfg.DateTimeNormalizer {
	case "auto", "llm", "rules":
	default:
		return Config{}, fmt.Errorf("invalid DATETIME_NORMALIZER: %q (expected auto|llm|rules)", cfg.DateTimeNormalizer)
	}
	if _, err := time.LoadLocation(cfg.CalendarTimezone); err != nil {
		return Config{}, fmt.Errorf("CALENDAR_TIMEZONE parse error: %w", err)
	}

	return cfg, nil
}

// Location resolves CalendarTimezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.CalendarTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
