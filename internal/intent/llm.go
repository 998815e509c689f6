package intent

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/llm"
	"github.com/antoniostano/claria/internal/tasks"
)

const classificationTimeout = 5 * time.Second

const intentPrompt = `Eres el clasificador de intenciones de un asistente virtual.
Tu única misión es decidir si el usuario quiere GESTIONAR UNA TAREA o simplemente CONVERSAR.

### CATEGORÍAS PERMITIDAS (macro_intent):
Solo puedes responder con una de estas 3 opciones:

1. "task": El usuario quiere CREAR, AGENDAR o GUARDAR algo.
   - task_type="calendar": Si hay fecha/hora explícita ("reunión mañana a las 5").
   - task_type="reminder": Si es un recordatorio vago o sin hora ("recuérdame comprar pan").
   - task_type="note": Si quiere guardar texto o listas ("anota esto", "lista del súper").

2. "task_query": El usuario pregunta qué tiene agendado.
   - Ejemplos: "¿Qué tengo hoy?", "Ver mis recordatorios", "Muéstrame la agenda".

3. "chat": TODO LO DEMÁS.
   - Si pregunta por el clima, noticias, información general -> "chat".
   - Si saluda, agradece o conversa -> "chat".
   - Si pide ayuda o instrucciones -> "chat".

### FORMATO DE RESPUESTA:
Responde SOLO con este JSON válido (sin explicaciones):
{
    "macro_intent": "task | task_query | chat",
    "task_type": "calendar | reminder | note | null"
}

### EJEMPLOS:
User: "Agendar dentista el viernes a las 4pm"
AI: {"macro_intent": "task", "task_type": "calendar"}

User: "Recuérdame llamar a mamá"
AI: {"macro_intent": "task", "task_type": "reminder"}

User: "¿Tengo algo pendiente para hoy?"
AI: {"macro_intent": "task_query", "task_type": null}

User: "Busca quién ganó el partido ayer"
AI: {"macro_intent": "chat", "task_type": null}

User: "Hola, buenos días"
AI: {"macro_intent": "chat", "task_type": null}

User: "Explícame los planes de internet"
AI: {"macro_intent": "chat", "task_type": null}`

// LLMStage asks a completion provider. Provider errors and malformed
// answers decide chat rather than passing on, so the chain ends here.
type LLMStage struct {
	provider llm.Provider
	timeout  time.Duration
}

func NewLLMStage(provider llm.Provider, timeout time.Duration) *LLMStage {
	if timeout <= 0 {
		timeout = classificationTimeout
	}
	return &LLMStage{provider: provider, timeout: timeout}
}

func (s *LLMStage) Name() string { return "llm" }

type llmAnswer struct {
	MacroIntent string  `json:"macro_intent"`
	TaskType    *string `json:"task_type"`
}

func (s *LLMStage) Decide(ctx context.Context, text string) (Result, bool) {
	if s.provider == nil {
		return Chat(), true
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.provider.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: intentPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0,
		MaxTokens:   60,
	})
	if err != nil {
		log.WithError(err).Debug("intent provider failed, defaulting to chat")
		return Chat(), true
	}

	var answer llmAnswer
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), &answer); err != nil {
		log.WithError(err).Warn("intent provider returned malformed JSON")
		return Chat(), true
	}
	res := Result{Macro: Macro(answer.MacroIntent)}
	if answer.TaskType != nil {
		res.TaskType = tasks.Type(*answer.TaskType)
	}
	return res, true
}
