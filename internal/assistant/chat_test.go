package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/antoniostano/claria/internal/llm"
	"github.com/antoniostano/claria/internal/memory"
)

type recordingProvider struct {
	reply    string
	err      error
	requests []llm.Request
}

func (p *recordingProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	p.requests = append(p.requests, req)
	return p.reply, p.err
}

func TestLLMResponderReplaysHistory(t *testing.T) {
	ctx := context.Background()
	history := memory.NewInMemoryStore(10)
	provider := &recordingProvider{reply: " ¡Hola! ¿En qué te ayudo? "}
	r := NewLLMResponder(provider, time.Second).WithHistory(history, 4)

	if got := r.Respond(ctx, "u1", "hola"); got != "¡Hola! ¿En qué te ayudo?" {
		t.Fatalf("Respond() = %q", got)
	}
	provider.reply = "Claro."
	r.Respond(ctx, "u1", "mi correo es ana@example.com")

	second := provider.requests[1].Messages
	if len(second) != 4 {
		t.Fatalf("messages = %d, want system + 2 history + user", len(second))
	}
	if second[1].Role != memory.RoleUser || second[1].Content != "hola" {
		t.Fatalf("history[0] = %+v", second[1])
	}
	if second[2].Role != memory.RoleAssistant || second[2].Content != "¡Hola! ¿En qué te ayudo?" {
		t.Fatalf("history[1] = %+v", second[2])
	}

	turns, _ := history.Recent(ctx, "u1", 0)
	if len(turns) != 4 {
		t.Fatalf("recorded turns = %d, want 4", len(turns))
	}
	if turns[2].Content != "mi correo es [REDACTED_EMAIL]" || !turns[2].PIIRedacted {
		t.Fatalf("stored user turn = %+v, want redacted", turns[2])
	}
}

func TestLLMResponderFallsBack(t *testing.T) {
	provider := &recordingProvider{err: errors.New("503")}
	r := NewLLMResponder(provider, time.Second)
	if got := r.Respond(context.Background(), "u1", "hola"); got != DefaultChatReply {
		t.Fatalf("Respond() = %q, want default reply", got)
	}

	provider.err = nil
	provider.reply = "   "
	if got := r.Respond(context.Background(), "u1", "hola"); got != DefaultChatReply {
		t.Fatalf("Respond(blank) = %q, want default reply", got)
	}
}
