package datetime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/llm"
)

const normalizerPrompt = `Eres un normalizador de fecha y hora.
Devuelve SOLO un JSON válido.

Campos:
- fecha: YYYY-MM-DD o null
- hora: HH:MM o null

Reglas:
- Usa formato 24 horas
- Si el texto no contiene información suficiente, devuelve null
- NO inventes datos`

const defaultNormalizeTimeout = 5 * time.Second

var errMalformed = errors.New("malformed normalizer output")

// LLMNormalizer asks a completion provider to resolve the expression.
// When the call itself fails it defers to fallback, if set; a provider
// answer of null is taken as final.
type LLMNormalizer struct {
	provider llm.Provider
	fallback Normalizer
	timeout  time.Duration
}

func NewLLMNormalizer(provider llm.Provider, fallback Normalizer, timeout time.Duration) *LLMNormalizer {
	if timeout <= 0 {
		timeout = defaultNormalizeTimeout
	}
	return &LLMNormalizer{provider: provider, fallback: fallback, timeout: timeout}
}

type normalizerInput struct {
	Text    string `json:"text"`
	Today   string `json:"today"`
	Weekday string `json:"weekday"`
}

type normalizerOutput struct {
	Fecha *string `json:"fecha"`
	Hora  *string `json:"hora"`
}

func (n *LLMNormalizer) Normalize(ctx context.Context, text string, now time.Time) Result {
	if strings.TrimSpace(text) == "" {
		return Result{}
	}
	res, err := n.complete(ctx, text, now)
	if err != nil {
		log.WithError(err).Debug("datetime normalizer degraded")
		if n.fallback != nil {
			return n.fallback.Normalize(ctx, text, now)
		}
		return Result{}
	}
	return res
}

func (n *LLMNormalizer) complete(ctx context.Context, text string, now time.Time) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	input, err := json.Marshal(normalizerInput{
		Text:    text,
		Today:   now.Format(DateLayout),
		Weekday: now.Weekday().String(),
	})
	if err != nil {
		return Result{}, err
	}
	raw, err := n.provider.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: normalizerPrompt},
			{Role: "user", Content: string(input)},
		},
		Temperature: 0,
		MaxTokens:   150,
	})
	if err != nil {
		return Result{}, err
	}
	var out normalizerOutput
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), &out); err != nil {
		return Result{}, errors.Join(errMalformed, err)
	}
	var res Result
	if out.Fecha != nil {
		res.Date = canonical(strings.TrimSpace(*out.Fecha), DateLayout)
	}
	if out.Hora != nil {
		res.Time = canonical(strings.TrimSpace(*out.Hora), TimeLayout)
	}
	return res, nil
}
