package main

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/antoniostano/claria/internal/app"
	"github.com/antoniostano/claria/internal/config"
)

func TestChatWSURL(t *testing.T) {
	got, err := chatWSURL("https://claria.example.com/base/", "u 1")
	if err != nil {
		t.Fatalf("chatWSURL() error = %v", err)
	}
	if want := "wss://claria.example.com/base/v1/chat/ws?user_key=u+1"; got != want {
		t.Fatalf("chatWSURL() = %q, want %q", got, want)
	}
	if _, err := chatWSURL("ftp://host", ""); err == nil {
		t.Fatalf("chatWSURL(ftp) error = nil")
	}
	if _, err := chatWSURL("http://", ""); err == nil {
		t.Fatalf("chatWSURL(no host) error = nil")
	}
}

func TestPercentile(t *testing.T) {
	samples := []time.Duration{5 * time.Millisecond, time.Millisecond, 3 * time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}
	cases := []struct {
		p    float64
		want time.Duration
	}{
		{0, time.Millisecond},
		{50, 3 * time.Millisecond},
		{95, 5 * time.Millisecond},
		{100, 5 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := percentile(samples, tc.p); got != tc.want {
			t.Fatalf("percentile(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("percentile(nil) = %v, want 0", got)
	}
}

func TestRunPerfDefaultScript(t *testing.T) {
	cfg := config.Config{
		MetricsNamespace:      "test_perf_" + time.Now().Format("150405000000"),
		LogLevel:              "info",
		LogFormat:             "text",
		ConversationBackend:   "memory",
		ConversationTTL:       300 * time.Second,
		LLMMode:               "mock",
		LLMTimeout:            time.Second,
		DateTimeNormalizer:    "rules",
		CalendarTimezone:      "America/Mexico_City",
		CalendarEventDuration: time.Hour,
	}
	built, err := app.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer built.Cleanup()
	ts := httptest.NewServer(built.API.Router())
	defer ts.Close()

	report, err := runPerf(context.Background(), perfOptions{
		baseURL:     ts.URL,
		userKey:     "perf",
		rounds:      1,
		turnTimeout: 5 * time.Second,
		texts:       defaultScript,
	}, io.Discard)
	if err != nil {
		t.Fatalf("runPerf() error = %v", err)
	}
	if report.Turns != len(defaultScript) || report.Errors != 0 {
		t.Fatalf("report = %+v", report)
	}
	want := map[string]int{"task_followup": 2, "task": 1, "task_query": 1}
	for action, n := range want {
		if report.Actions[action] != n {
			t.Fatalf("Actions = %v, want %v", report.Actions, want)
		}
	}
	list, _ := built.Tasks.List(context.Background(), "perf")
	if len(list) != 1 || list[0].MeetingLink != "no especificado" {
		t.Fatalf("stored tasks = %+v", list)
	}
}
