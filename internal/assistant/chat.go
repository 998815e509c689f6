package assistant

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/llm"
	"github.com/antoniostano/claria/internal/memory"
)

// DefaultChatReply is answered whenever no provider can.
const DefaultChatReply = "Puedo ayudarte a agendar eventos, crear recordatorios y guardar notas. ¿Qué necesitas?"

// ChatResponder answers utterances that are not about tasks. It never fails.
type ChatResponder interface {
	Respond(ctx context.Context, owner, text string) string
}

type StaticResponder struct{}

func (StaticResponder) Respond(context.Context, string, string) string { return DefaultChatReply }

const chatPrompt = `Eres Claria, una asistente virtual amable de atención a clientes.
Responde en español, de forma breve y clara (máximo 3 oraciones).
Si el usuario quiere agendar, recordar o anotar algo, indícale que puede pedírtelo directamente.
No inventes precios, planes ni datos de cuentas.`

// LLMResponder asks the provider and falls back to DefaultChatReply.
// With a history store it replays the owner's recent chat turns and
// records the new exchange.
type LLMResponder struct {
	provider     llm.Provider
	timeout      time.Duration
	history      memory.Store
	historyTurns int
}

func NewLLMResponder(provider llm.Provider, timeout time.Duration) *LLMResponder {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &LLMResponder{provider: provider, timeout: timeout}
}

// WithHistory enables chat history of up to turns prior messages.
func (r *LLMResponder) WithHistory(store memory.Store, turns int) *LLMResponder {
	r.history = store
	r.historyTurns = turns
	return r
}

func (r *LLMResponder) Respond(ctx context.Context, owner, text string) string {
	messages := []llm.Message{{Role: "system", Content: chatPrompt}}
	messages = append(messages, r.recent(ctx, owner)...)
	messages = append(messages, llm.Message{Role: "user", Content: text})

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	out, err := r.provider.Complete(callCtx, llm.Request{
		Messages:    messages,
		Temperature: 0.4,
		MaxTokens:   300,
	})
	if err != nil {
		log.WithError(err).Debug("chat provider failed, using default reply")
		out = DefaultChatReply
	}
	if out = strings.TrimSpace(out); out == "" {
		out = DefaultChatReply
	}
	r.record(ctx, owner, text, out)
	return out
}

func (r *LLMResponder) recent(ctx context.Context, owner string) []llm.Message {
	if r.history == nil || r.historyTurns <= 0 {
		return nil
	}
	turns, err := r.history.Recent(ctx, owner, r.historyTurns)
	if err != nil {
		log.WithError(err).Warn("chat history unavailable")
		return nil
	}
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.Message{Role: t.Role, Content: t.Content})
	}
	return out
}

func (r *LLMResponder) record(ctx context.Context, owner, text, reply string) {
	if r.history == nil {
		return
	}
	for _, turn := range []memory.Turn{
		memory.NewTurn(owner, memory.RoleUser, text),
		memory.NewTurn(owner, memory.RoleAssistant, reply),
	} {
		if err := r.history.Append(ctx, turn); err != nil {
			log.WithError(err).Warn("could not record chat turn")
			return
		}
	}
}
