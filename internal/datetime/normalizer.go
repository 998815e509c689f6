// Package datetime resolves Spanish date and time expressions into
// canonical YYYY-MM-DD and HH:MM values.
package datetime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/antoniostano/claria/internal/llm"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Result holds a resolved pair. Empty fields are unresolved.
type Result struct {
	Date string `json:"fecha,omitempty"`
	Time string `json:"hora,omitempty"`
}

func (r Result) Complete() bool { return r.Date != "" && r.Time != "" }

func (r Result) Empty() bool { return r.Date == "" && r.Time == "" }

// Normalizer never fails: anything it cannot resolve is left empty.
type Normalizer interface {
	Normalize(ctx context.Context, text string, now time.Time) Result
}

// NormalizerFunc adapts a function to Normalizer.
type NormalizerFunc func(ctx context.Context, text string, now time.Time) Result

func (f NormalizerFunc) Normalize(ctx context.Context, text string, now time.Time) Result {
	return f(ctx, text, now)
}

// canonical returns the value reformatted in layout, or "" if it does not parse.
func canonical(value, layout string) string {
	t, err := time.Parse(layout, value)
	if err != nil {
		return ""
	}
	return t.Format(layout)
}

func (r Result) String() string {
	return fmt.Sprintf("fecha=%q hora=%q", r.Date, r.Time)
}

// New builds the normalizer for mode: "rules", "llm", or "auto" (the
// provider backed by rules when a provider is configured, rules otherwise).
func New(mode string, provider llm.Provider, timeout time.Duration) (Normalizer, error) {
	rules := NewRuleNormalizer()
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "rules":
		return rules, nil
	case "llm":
		if provider == nil {
			return nil, fmt.Errorf("llm datetime normalizer requires a provider")
		}
		return NewLLMNormalizer(provider, nil, timeout), nil
	case "", "auto":
		if llm.Configured(provider) {
			return NewLLMNormalizer(provider, rules, timeout), nil
		}
		return rules, nil
	default:
		return nil, fmt.Errorf("unsupported datetime normalizer %q", mode)
	}
}
