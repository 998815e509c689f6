package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/agents"
	"github.com/antoniostano/claria/internal/assistant"
	"github.com/antoniostano/claria/internal/config"
	"github.com/antoniostano/claria/internal/continuation"
	"github.com/antoniostano/claria/internal/conversation"
	"github.com/antoniostano/claria/internal/datetime"
	"github.com/antoniostano/claria/internal/httpapi"
	"github.com/antoniostano/claria/internal/ics"
	"github.com/antoniostano/claria/internal/intent"
	"github.com/antoniostano/claria/internal/llm"
	"github.com/antoniostano/claria/internal/memory"
	"github.com/antoniostano/claria/internal/observability"
	"github.com/antoniostano/claria/internal/tasks"
)

type BuildResult struct {
	Config        config.Config
	API           *httpapi.Server
	Assistant     *assistant.Service
	Tasks         tasks.Store
	Conversations conversation.Store
	History       memory.Store
	Metrics       *observability.Metrics
	// ProviderConfigured is false when every remote call takes its fail-safe path.
	ProviderConfigured bool

	// Cleanup should be called on shutdown to release external resources (DB, Redis).
	Cleanup func() error
}

// ConfigureLogging applies the configured logrus level and format.
func ConfigureLogging(cfg config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("APP_LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid APP_LOG_FORMAT: %q (expected text|json)", cfg.LogFormat)
	}
	return nil
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	provider, err := llm.NewProvider(llm.Config{
		Mode: cfg.LLMMode,
		Primary: llm.Endpoint{
			Name:    "groq",
			BaseURL: cfg.GroqBaseURL,
			APIKey:  cfg.GroqAPIKey,
			Model:   cfg.GroqModel,
		},
		Secondary: llm.Endpoint{
			Name:    "openai",
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
		},
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
		Recorder:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("completion provider init failed: %w", err)
	}

	normalizer, err := datetime.New(cfg.DateTimeNormalizer, provider, cfg.LLMTimeout)
	if err != nil {
		return nil, fmt.Errorf("datetime normalizer init failed: %w", err)
	}

	taskStore, err := tasks.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("task store init failed: %w", err)
	}

	conversations, err := conversation.NewStore(ctx, conversation.Options{
		Backend:       cfg.ConversationBackend,
		TTL:           cfg.ConversationTTL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		_ = taskStore.Close()
		return nil, fmt.Errorf("conversation store init failed: %w", err)
	}

	history, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = conversations.Close()
		_ = taskStore.Close()
		return nil, fmt.Errorf("chat history store init failed: %w", err)
	}

	generator := ics.NewGenerator(cfg.CalendarTimezone, cfg.CalendarEventDuration)

	engine := continuation.NewEngine(continuation.Options{
		Conversations: conversations,
		Tasks:         taskStore,
		Transitioner:  continuation.NewTransitioner(normalizer, now),
		Generator:     generator,
		Recorder:      metrics,
		Now:           now,
	})

	service := assistant.NewService(assistant.Options{
		Conversations: conversations,
		Tasks:         taskStore,
		Classifier:    intent.New(provider, metrics, cfg.LLMTimeout),
		Analyzer:      agents.NewAnalyzer(normalizer, now),
		Agents: agents.NewRegistry(agents.Deps{
			Normalizer: normalizer,
			Generator:  generator,
			Recorder:   metrics,
			Now:        now,
		}),
		Engine:   engine,
		Chat:     assistant.NewLLMResponder(provider, cfg.LLMTimeout).WithHistory(history, cfg.ChatHistoryTurns),
		Recorder: metrics,
		Now:      now,
	})

	api := httpapi.New(httpapi.Options{
		Config:        cfg,
		Assistant:     service,
		Tasks:         taskStore,
		Conversations: conversations,
		History:       history,
		Generator:     generator,
		Metrics:       metrics,
	})

	cleanup := func() error {
		var errs []string
		if err := history.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := conversations.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := taskStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:             cfg,
		API:                api,
		Assistant:          service,
		Tasks:              taskStore,
		Conversations:      conversations,
		History:            history,
		Metrics:            metrics,
		ProviderConfigured: llm.Configured(provider),
		Cleanup:            cleanup,
	}, nil
}
