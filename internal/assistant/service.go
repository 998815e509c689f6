// Package assistant runs one conversational turn: pending slot answers,
// cancellation, intent routing, task agents and task listings.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/agents"
	"github.com/antoniostano/claria/internal/continuation"
	"github.com/antoniostano/claria/internal/conversation"
	"github.com/antoniostano/claria/internal/ics"
	"github.com/antoniostano/claria/internal/intent"
	"github.com/antoniostano/claria/internal/observability"
	"github.com/antoniostano/claria/internal/policy"
	"github.com/antoniostano/claria/internal/tasks"
)

type Action string

const (
	ActionChat      Action = "chat"
	ActionFollowup  Action = "task_followup"
	ActionTask      Action = "task"
	ActionQuery     Action = "task_query"
	ActionCancelled Action = "task_cancelled"
)

var ErrEmptyMessage = errors.New("message is empty")

var (
	urlPattern    = regexp2.MustCompile(`(?:https?://|www\.)\S+`, regexp2.IgnoreCase)
	cancelPattern = regexp2.MustCompile(`\b(?:cancel(?:a|ar|alo|ado)|olv[ií]d(?:a|alo|ar)|ya no|mejor no|det[eé]n(?:er|lo)?)\b`, regexp2.IgnoreCase)
)

// wantsCancel matches cancel phrases as whole words outside any URL, so a
// meeting link like https://meet.example.com/olvida-esto still fills a slot.
func wantsCancel(text string) bool {
	stripped, err := urlPattern.Replace(text, " ", -1, -1)
	if err != nil {
		return false
	}
	ok, err := cancelPattern.MatchString(stripped)
	return err == nil && ok
}

// Reply is the result of one turn.
type Reply struct {
	Action      Action        `json:"action"`
	Response    string        `json:"response"`
	MacroIntent intent.Macro  `json:"macro_intent,omitempty"`
	TaskType    tasks.Type    `json:"task_type,omitempty"`
	PendingSlot tasks.Slot    `json:"pending_field,omitempty"`
	Draft       *tasks.Draft  `json:"draft,omitempty"`
	Candidates  []tasks.Slot  `json:"enrichment_candidates,omitempty"`
	Task        *tasks.Task   `json:"task,omitempty"`
	Tasks       tasks.Grouped `json:"tasks,omitempty"`
	ICS         *ics.Artifact `json:"ics,omitempty"`
}

// Recorder is the subset of metrics a turn reports.
type Recorder interface {
	ObserveTurn(action string)
	ObserveTurnStage(stage string, d time.Duration)
}

type Options struct {
	Conversations conversation.Store
	Tasks         tasks.Store
	Locker        *conversation.KeyedMutex
	Classifier    *intent.Classifier
	Analyzer      *agents.Analyzer
	Agents        *agents.Registry
	Engine        *continuation.Engine
	Chat          ChatResponder
	Recorder      Recorder
	Now           func() time.Time
}

type Service struct {
	conversations conversation.Store
	tasks         tasks.Store
	locker        *conversation.KeyedMutex
	classifier    *intent.Classifier
	analyzer      *agents.Analyzer
	agents        *agents.Registry
	engine        *continuation.Engine
	chat          ChatResponder
	recorder      Recorder
	now           func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		conversations: opts.Conversations,
		tasks:         opts.Tasks,
		locker:        opts.Locker,
		classifier:    opts.Classifier,
		analyzer:      opts.Analyzer,
		agents:        opts.Agents,
		engine:        opts.Engine,
		chat:          opts.Chat,
		recorder:      opts.Recorder,
		now:           opts.Now,
	}
	if s.locker == nil {
		s.locker = conversation.NewKeyedMutex()
	}
	if s.chat == nil {
		s.chat = StaticResponder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// HandleMessage processes one utterance for owner. Turns for the same
// owner run one at a time in arrival order.
func (s *Service) HandleMessage(ctx context.Context, owner, text string) (Reply, error) {
	owner = strings.TrimSpace(owner)
	text = strings.TrimSpace(text)
	if owner == "" {
		return Reply{}, conversation.ErrEmptyKey
	}
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	unlock := s.locker.Lock(owner)
	defer unlock()

	started := time.Now()
	reply, err := s.handle(ctx, owner, text)
	s.observeStage(observability.StageTurnTotal, started)

	fields := log.Fields{"owner": policy.ForLog(owner), "message": policy.ForLog(text)}
	if err != nil {
		log.WithError(err).WithFields(fields).Error("turn failed")
		return Reply{}, err
	}
	fields["action"] = reply.Action
	fields["task_type"] = reply.TaskType
	log.WithFields(fields).Info("turn handled")
	if s.recorder != nil {
		s.recorder.ObserveTurn(string(reply.Action))
	}
	return reply, nil
}

func (s *Service) handle(ctx context.Context, owner, text string) (Reply, error) {
	state, err := s.conversations.Load(ctx, owner)
	if err != nil {
		return Reply{}, fmt.Errorf("load conversation: %w", err)
	}

	if state.Pending() {
		if wantsCancel(text) {
			if err := s.conversations.Clear(ctx, owner); err != nil {
				return Reply{}, fmt.Errorf("clear conversation: %w", err)
			}
			return Reply{Action: ActionCancelled, Response: "❌ Creación de evento cancelada."}, nil
		}
		started := time.Now()
		res, err := s.engine.Continue(ctx, owner, state, text)
		s.observeStage(observability.StageContinuation, started)
		if err != nil {
			return Reply{}, err
		}
		return fromResult(res, intent.MacroTask), nil
	}

	started := time.Now()
	decision := s.classifier.Classify(ctx, text)
	s.observeStage(observability.StageClassify, started)

	switch decision.Macro {
	case intent.MacroTaskQuery:
		return s.query(ctx, owner, text)
	case intent.MacroTask:
		return s.createTask(ctx, owner, text, decision.TaskType)
	default:
		return Reply{
			Action:      ActionChat,
			Response:    s.chat.Respond(ctx, owner, text),
			MacroIntent: intent.MacroChat,
		}, nil
	}
}

func (s *Service) createTask(ctx context.Context, owner, text string, taskType tasks.Type) (Reply, error) {
	started := time.Now()
	analysis := s.analyzer.Analyze(ctx, text, taskType)
	outcome := s.agents.For(taskType).Handle(ctx, text, analysis)
	s.observeStage(observability.StageAnalyze, started)

	if outcome.NeedsFollowup() {
		next := tasks.SlotOther
		if slots := continuation.NormalizeCandidates(outcome.Candidates); len(slots) > 0 {
			next = slots[0]
		}
		res, err := s.engine.Await(ctx, owner, outcome.Draft, next)
		if err != nil {
			return Reply{}, err
		}
		reply := fromResult(res, intent.MacroTask)
		reply.Candidates = outcome.Candidates
		return reply, nil
	}

	started = time.Now()
	res, err := s.engine.Finalize(ctx, owner, outcome.Draft, tasks.Draft{}, outcome.Artifact)
	s.observeStage(observability.StageFinalize, started)
	if err != nil {
		return Reply{}, err
	}
	reply := fromResult(res, intent.MacroTask)
	if title := outcome.Draft.Title; title != "" && reply.Task != nil {
		reply.Response = fmt.Sprintf("📝 Nota guardada: %s", title)
	}
	return reply, nil
}

func (s *Service) query(ctx context.Context, owner, text string) (Reply, error) {
	grouped, err := s.tasks.Grouped(ctx, owner)
	if err != nil {
		return Reply{}, fmt.Errorf("list tasks: %w", err)
	}
	window := DetectRange(text, s.now())
	grouped = FilterGrouped(grouped, window)
	return Reply{
		Action:      ActionQuery,
		Response:    Summary(grouped, window) + "\n\n" + RenderTables(grouped),
		MacroIntent: intent.MacroTaskQuery,
		Tasks:       grouped,
	}, nil
}

func fromResult(res continuation.Result, macro intent.Macro) Reply {
	if res.Action == continuation.ActionFollowup {
		reply := Reply{
			Action:      ActionFollowup,
			Response:    res.Question,
			MacroIntent: macro,
			PendingSlot: res.Slot,
			Draft:       res.Draft,
			Candidates:  []tasks.Slot{res.Slot},
		}
		if res.Draft != nil {
			reply.TaskType = res.Draft.TaskType
		}
		return reply
	}
	reply := Reply{
		Action:      ActionTask,
		MacroIntent: macro,
		Task:        res.Task,
		Tasks:       res.Tasks,
		ICS:         res.Artifact,
	}
	if res.Task != nil {
		reply.TaskType = res.Task.Type
		reply.Response = Confirmation(res.Task.Type)
	}
	return reply
}

// Confirmation is the reply once a task is stored.
func Confirmation(t tasks.Type) string {
	switch t {
	case tasks.TypeCalendar:
		return "📅 Listo. Guardé el evento."
	case tasks.TypeReminder:
		return "⏰ Listo. Guardé el recordatorio."
	case tasks.TypeNote:
		return "📝 Nota guardada."
	default:
		return "✅ Listo. Guardé la tarea."
	}
}

func (s *Service) observeStage(stage string, started time.Time) {
	if s.recorder != nil {
		s.recorder.ObserveTurnStage(stage, time.Since(started))
	}
}
