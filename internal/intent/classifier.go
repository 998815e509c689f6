// Package intent decides whether an utterance creates a task, asks about
// existing tasks, or is plain conversation.
package intent

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/llm"
	"github.com/antoniostano/claria/internal/tasks"
)

type Macro string

const (
	MacroTask      Macro = "task"
	MacroTaskQuery Macro = "task_query"
	MacroChat      Macro = "chat"
)

// StageDefault names the decision taken when no stage matched.
const StageDefault = "default"

type Result struct {
	Macro    Macro      `json:"macro_intent"`
	TaskType tasks.Type `json:"task_type,omitempty"`
	// Stage names the stage that decided; it is not part of the wire shape.
	Stage string `json:"-"`
}

// Chat is the fail-safe classification.
func Chat() Result {
	return Result{Macro: MacroChat}
}

// Stage is one link of the decision chain. ok=false passes the utterance on.
type Stage interface {
	Name() string
	Decide(ctx context.Context, text string) (res Result, ok bool)
}

type Recorder interface {
	ObserveIntent(stage, macroIntent string)
}

// Classifier consults its stages in order; the first decision wins.
type Classifier struct {
	stages   []Stage
	recorder Recorder
}

func NewClassifier(recorder Recorder, stages ...Stage) *Classifier {
	return &Classifier{stages: stages, recorder: recorder}
}

// New builds the standard chain: DefaultRules, then the provider.
func New(provider llm.Provider, recorder Recorder, timeout time.Duration) *Classifier {
	stages := append(DefaultRules(), NewLLMStage(provider, timeout))
	return NewClassifier(recorder, stages...)
}

// Classify never fails. Anything unresolved is chat.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	res := Chat()
	res.Stage = StageDefault
	if text != "" {
		for _, stage := range c.stages {
			decided, ok := stage.Decide(ctx, text)
			if !ok {
				continue
			}
			res = sanitize(decided)
			res.Stage = stage.Name()
			break
		}
	}
	if c.recorder != nil {
		c.recorder.ObserveIntent(res.Stage, string(res.Macro))
	}
	log.WithFields(log.Fields{
		"stage":        res.Stage,
		"macro_intent": res.Macro,
		"task_type":    res.TaskType,
	}).Debug("intent classified")
	return res
}

// sanitize enforces the allowed combinations. A task without a valid
// type cannot be routed, so it collapses to chat.
func sanitize(res Result) Result {
	switch res.Macro {
	case MacroTask:
		if _, ok := tasks.ParseType(string(res.TaskType)); !ok {
			return Chat()
		}
		return Result{Macro: MacroTask, TaskType: res.TaskType}
	case MacroTaskQuery:
		return Result{Macro: MacroTaskQuery}
	default:
		return Chat()
	}
}
