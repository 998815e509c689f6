package continuation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/content"
	"github.com/antoniostano/claria/internal/conversation"
	"github.com/antoniostano/claria/internal/ics"
	"github.com/antoniostano/claria/internal/tasks"
)

type Action string

const (
	ActionFollowup Action = "task_followup"
	ActionTask     Action = "task"
)

// ErrIncompleteDraft is returned when a calendar draft without both date
// and time reaches finalization.
var ErrIncompleteDraft = errors.New("calendar draft needs date and time")

type Recorder interface {
	ObserveTaskPersisted(taskType string)
	ObserveArtifactFailure(reason string)
	ObserveFollowup(slot string)
}

// Result is either a follow-up (Slot set) or a persisted task.
type Result struct {
	Action   Action        `json:"action"`
	Draft    *tasks.Draft  `json:"draft,omitempty"`
	Slot     tasks.Slot    `json:"slot,omitempty"`
	Question string        `json:"question,omitempty"`
	Task     *tasks.Task   `json:"task,omitempty"`
	Artifact *ics.Artifact `json:"ics,omitempty"`
	Tasks    tasks.Grouped `json:"tasks,omitempty"`
}

type Options struct {
	Conversations conversation.Store
	Tasks         tasks.Store
	Transitioner  *Transitioner
	Generator     *ics.Generator
	Recorder      Recorder
	Now           func() time.Time
	NewID         func() string
}

// Engine is not safe for concurrent use on the same owner key; callers
// serialize turns per owner.
type Engine struct {
	conversations conversation.Store
	tasks         tasks.Store
	transitioner  *Transitioner
	generator     *ics.Generator
	recorder      Recorder
	now           func() time.Time
	newID         func() string
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		conversations: opts.Conversations,
		tasks:         opts.Tasks,
		transitioner:  opts.Transitioner,
		generator:     opts.Generator,
		recorder:      opts.Recorder,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// Continue consumes msg as the answer to the pending slot of state.
func (e *Engine) Continue(ctx context.Context, owner string, state conversation.State, msg string) (Result, error) {
	prior := state.Slots
	updated := e.transitioner.Transition(ctx, state.AwaitingSlot, prior, msg)

	if updated.Terminal() && updated.TaskType == tasks.TypeCalendar && !updated.HasDateTime() {
		updated.Status = tasks.DraftEnriched
		updated.NextSlot = tasks.SlotDateTime
	}
	if !updated.Terminal() {
		next := updated.NextSlot
		if next == "" {
			next = tasks.SlotOther
		}
		return e.Await(ctx, owner, updated, next)
	}
	return e.Finalize(ctx, owner, updated, prior, nil)
}

// Await records slot as the awaited field of draft and returns the
// follow-up result.
func (e *Engine) Await(ctx context.Context, owner string, draft tasks.Draft, slot tasks.Slot) (Result, error) {
	slot = tasks.PendingSlot(slot)
	draft.NextSlot = slot
	err := e.conversations.Save(ctx, owner, conversation.State{
		Intent:       conversation.IntentTaskEnrichment,
		Slots:        draft,
		AwaitingSlot: slot,
	})
	if err != nil {
		return Result{}, fmt.Errorf("save conversation state: %w", err)
	}
	if e.recorder != nil {
		e.recorder.ObserveFollowup(string(slot))
	}
	return Result{
		Action:   ActionFollowup,
		Draft:    &draft,
		Slot:     slot,
		Question: Question(slot, draft.TaskType),
	}, nil
}

// Finalize persists draft as an active task, attaches an invite for
// scheduled types and resets the owner's conversation. prior is the
// snapshot before the last answer and only feeds the location fallback.
// A non-nil prebuilt invite is used as is.
func (e *Engine) Finalize(ctx context.Context, owner string, draft, prior tasks.Draft, prebuilt *ics.Artifact) (Result, error) {
	taskType, ok := tasks.ParseType(string(draft.TaskType))
	if !ok {
		taskType = tasks.TypeNote
	}
	if taskType == tasks.TypeCalendar && !draft.HasDateTime() {
		return Result{}, ErrIncompleteDraft
	}

	task := tasks.Task{
		ID:          e.newID(),
		OwnerKey:    owner,
		Type:        taskType,
		Content:     content.Synthesize(draft.Content),
		Description: strings.TrimSpace(draft.Description),
		MeetingType: draft.MeetingType,
		MeetingLink: draft.MeetingLink,
		Status:      tasks.StatusActive,
		CreatedAt:   e.now().UTC(),
	}
	if taskType.Scheduled() {
		task.Fecha, task.Hora = draft.Fecha, draft.Hora
		task.Location = resolveLocation(draft, prior)
	} else if task.Description == "" && task.Content != strings.TrimSpace(draft.Content) {
		task.Description = strings.TrimSpace(draft.Content)
	}

	if err := e.tasks.Add(ctx, task); err != nil {
		return Result{}, fmt.Errorf("persist task: %w", err)
	}
	if e.recorder != nil {
		e.recorder.ObserveTaskPersisted(string(task.Type))
	}

	res := Result{Action: ActionTask, Task: &task}
	if taskType.Scheduled() {
		res.Artifact = prebuilt
		if res.Artifact == nil {
			res.Artifact = e.artifact(task)
		}
	}

	if err := e.conversations.Clear(ctx, owner); err != nil {
		log.WithError(err).WithField("task_id", task.ID).Warn("could not reset conversation after finalizing task")
	}

	grouped, err := e.tasks.Grouped(ctx, owner)
	if err != nil {
		return Result{}, fmt.Errorf("list tasks: %w", err)
	}
	res.Tasks = grouped

	log.WithFields(log.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
		"invite":    res.Artifact != nil,
	}).Info("task finalized")
	return res, nil
}

func (e *Engine) artifact(task tasks.Task) *ics.Artifact {
	if e.generator == nil {
		return nil
	}
	a, err := e.generator.ForTask(task)
	if err != nil {
		reason := "generate"
		if errors.Is(err, ics.ErrValidation) {
			reason = "validation"
		}
		if e.recorder != nil {
			e.recorder.ObserveArtifactFailure(reason)
		}
		log.WithError(err).WithField("task_id", task.ID).Debug("invite omitted")
		return nil
	}
	return a
}

func resolveLocation(draft, prior tasks.Draft) string {
	for _, candidate := range []string{draft.Location, draft.Ubicacion, prior.Location, prior.Ubicacion} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return tasks.UnknownLocation
}

// NormalizeCandidates orders agent candidates onto continuation slots:
// meeting_link first, then datetime (reminder fecha/hora collapse onto it).
func NormalizeCandidates(candidates []tasks.Slot) []tasks.Slot {
	var link, dt, other bool
	for _, c := range candidates {
		switch tasks.PendingSlot(c) {
		case tasks.SlotMeetingLink:
			link = true
		case tasks.SlotDateTime:
			dt = true
		default:
			other = true
		}
	}
	out := make([]tasks.Slot, 0, 2)
	if link {
		out = append(out, tasks.SlotMeetingLink)
	}
	if dt {
		out = append(out, tasks.SlotDateTime)
	}
	if len(out) == 0 && other {
		out = append(out, tasks.SlotOther)
	}
	return out
}

// Question is the single follow-up asked for slot.
func Question(slot tasks.Slot, taskType tasks.Type) string {
	switch tasks.PendingSlot(slot) {
	case tasks.SlotMeetingLink:
		return "🔗 ¿Ya tienes la liga de la reunión?"
	case tasks.SlotDateTime:
		if taskType == tasks.TypeReminder {
			return "⏰ ¿Qué día y a qué hora quieres que te lo recuerde?"
		}
		return "🕒 ¿En qué fecha y hora será el evento?"
	default:
		return "🤔 ¿Puedes darme un poco más de información?"
	}
}
