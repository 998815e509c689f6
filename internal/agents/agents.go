package agents

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/content"
	"github.com/antoniostano/claria/internal/datetime"
	"github.com/antoniostano/claria/internal/ics"
	"github.com/antoniostano/claria/internal/tasks"
)

const noteTitleRunes = 60

// Outcome is what an agent decides for a fresh task utterance.
type Outcome struct {
	Draft      tasks.Draft   `json:"draft"`
	Candidates []tasks.Slot  `json:"enrichment_candidates"`
	Artifact   *ics.Artifact `json:"ics,omitempty"`
}

func (o Outcome) NeedsFollowup() bool {
	return len(o.Candidates) > 0
}

type Agent interface {
	Type() tasks.Type
	Handle(ctx context.Context, text string, analysis Analysis) Outcome
}

type ArtifactRecorder interface {
	ObserveArtifactFailure(reason string)
}

// Deps are shared by every agent.
type Deps struct {
	Normalizer datetime.Normalizer
	Generator  *ics.Generator
	Recorder   ArtifactRecorder
	Now        func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func newDraft(taskType tasks.Type, text string, analysis Analysis) tasks.Draft {
	return tasks.Draft{
		TaskType:    taskType,
		Status:      tasks.DraftCreated,
		Content:     text,
		MeetingType: analysis.MeetingType,
		Location:    analysis.Location,
	}
}

// CalendarAgent asks for the link when the analysis says a virtual meeting
// lacks one, and for the datetime unless both halves are known.
type CalendarAgent struct{ deps Deps }

func NewCalendarAgent(deps Deps) *CalendarAgent { return &CalendarAgent{deps: deps} }

func (a *CalendarAgent) Type() tasks.Type { return tasks.TypeCalendar }

func (a *CalendarAgent) Handle(ctx context.Context, text string, analysis Analysis) Outcome {
	draft := newDraft(tasks.TypeCalendar, text, analysis)
	draft.Fecha, draft.Hora = analysis.Fecha, analysis.Hora

	out := Outcome{Candidates: []tasks.Slot{}}
	if analysis.Missing(tasks.SlotMeetingLink) {
		out.Candidates = append(out.Candidates, tasks.SlotMeetingLink)
	}
	if !draft.HasDateTime() {
		out.Candidates = append(out.Candidates, tasks.SlotDateTime)
		out.Draft = draft
		return out
	}

	// The second pass is authoritative for the invite.
	second := a.deps.Normalizer.Normalize(ctx, text, a.deps.now())
	if second.Complete() {
		draft.Fecha, draft.Hora = second.Date, second.Time
		out.Artifact = a.buildArtifact(draft)
	}
	out.Draft = draft
	return out
}

func (a *CalendarAgent) buildArtifact(d tasks.Draft) *ics.Artifact {
	if a.deps.Generator == nil {
		return nil
	}
	title := content.Synthesize(d.Content)
	raw, err := a.deps.Generator.Generate(ics.Event{
		Title:       title,
		Description: d.Content,
		Location:    d.Location,
		Date:        d.Fecha,
		Time:        d.Hora,
	})
	if err != nil {
		log.WithError(err).Warn("calendar agent could not build invite")
		if a.deps.Recorder != nil {
			reason := "generate"
			if errors.Is(err, ics.ErrValidation) {
				reason = "validation"
			}
			a.deps.Recorder.ObserveArtifactFailure(reason)
		}
		return nil
	}
	return &ics.Artifact{Content: raw, Filename: ics.Filename(d.Fecha, d.Hora)}
}

// ReminderAgent runs its own normalization pass and overwrites whatever
// the analysis found. Missing halves are named fecha and hora.
type ReminderAgent struct{ deps Deps }

func NewReminderAgent(deps Deps) *ReminderAgent { return &ReminderAgent{deps: deps} }

func (a *ReminderAgent) Type() tasks.Type { return tasks.TypeReminder }

func (a *ReminderAgent) Handle(ctx context.Context, text string, analysis Analysis) Outcome {
	draft := newDraft(tasks.TypeReminder, text, analysis)
	dt := a.deps.Normalizer.Normalize(ctx, text, a.deps.now())
	draft.Fecha, draft.Hora = dt.Date, dt.Time

	out := Outcome{Draft: draft, Candidates: []tasks.Slot{}}
	if draft.Fecha == "" {
		out.Candidates = append(out.Candidates, tasks.SlotFecha)
	}
	if draft.Hora == "" {
		out.Candidates = append(out.Candidates, tasks.SlotHora)
	}
	return out
}

// NoteAgent never follows up.
type NoteAgent struct{}

func NewNoteAgent() *NoteAgent { return &NoteAgent{} }

func (a *NoteAgent) Type() tasks.Type { return tasks.TypeNote }

func (a *NoteAgent) Handle(_ context.Context, text string, _ Analysis) Outcome {
	return Outcome{
		Draft: tasks.Draft{
			TaskType: tasks.TypeNote,
			Status:   tasks.DraftCreated,
			Content:  text,
			Title:    NoteTitle(text),
		},
		Candidates: []tasks.Slot{},
	}
}

// NoteTitle is the first 60 characters of text, trimmed.
func NoteTitle(text string) string {
	if utf8.RuneCountInString(text) <= noteTitleRunes {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string([]rune(text)[:noteTitleRunes]))
}

// Registry selects the agent for a task type. Unknown types get the note agent.
type Registry struct {
	byType map[tasks.Type]Agent
	note   Agent
}

func NewRegistry(deps Deps) *Registry {
	note := NewNoteAgent()
	return &Registry{
		byType: map[tasks.Type]Agent{
			tasks.TypeCalendar: NewCalendarAgent(deps),
			tasks.TypeReminder: NewReminderAgent(deps),
			tasks.TypeNote:     note,
		},
		note: note,
	}
}

func (r *Registry) For(t tasks.Type) Agent {
	if a, ok := r.byType[t]; ok {
		return a
	}
	return r.note
}
