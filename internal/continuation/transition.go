// Package continuation resolves pending draft slots one turn at a time and
// finalizes drafts into stored tasks.
package continuation

import (
	"context"
	"strings"
	"time"

	"github.com/antoniostano/claria/internal/agents"
	"github.com/antoniostano/claria/internal/datetime"
	"github.com/antoniostano/claria/internal/tasks"
)

// Keywords recognised while waiting for a meeting link.
var (
	PresencialKeywords = []string{
		"presencial", "en persona", "en oficina", "físico", "cara a cara",
	}
	NoLinkKeywords = []string{
		"no necesito liga", "no necesito link", "no necesito enlace",
		"sin liga", "sin link", "sin enlace", "no tiene", "no hay",
		"no hace falta", "no requiere",
	}
)

// Transitioner applies one user answer to a draft snapshot.
type Transitioner struct {
	normalizer datetime.Normalizer
	now        func() time.Time
}

func NewTransitioner(normalizer datetime.Normalizer, now func() time.Time) *Transitioner {
	if now == nil {
		now = time.Now
	}
	return &Transitioner{normalizer: normalizer, now: now}
}

// Transition returns the updated draft. Status and NextSlot say whether
// the draft is complete or which slot is still awaited. Unknown pending
// slots take the free-text branch.
func (t *Transitioner) Transition(ctx context.Context, pending tasks.Slot, snapshot tasks.Draft, msg string) tasks.Draft {
	switch tasks.PendingSlot(pending) {
	case tasks.SlotMeetingLink:
		return t.meetingLink(snapshot, msg)
	case tasks.SlotDateTime:
		return t.dateTime(ctx, snapshot, msg)
	default:
		return t.other(snapshot, msg)
	}
}

func (t *Transitioner) meetingLink(d tasks.Draft, msg string) tasks.Draft {
	switch {
	case agents.ContainsAny(msg, PresencialKeywords):
		d.MeetingLink = ""
		d.MeetingType = tasks.MeetingPresencial
	case agents.ContainsAny(msg, NoLinkKeywords):
		d.MeetingLink = tasks.NoLink
		if d.MeetingType == "" {
			d.MeetingType = tasks.MeetingVirtual
		}
	default:
		link, ok := agents.FindURL(msg)
		if !ok {
			d.Status = tasks.DraftCreated
			d.NextSlot = tasks.SlotMeetingLink
			return d
		}
		d.MeetingLink = link
		d.MeetingType = tasks.MeetingVirtual
	}

	if d.HasDateTime() {
		d.Status = tasks.DraftCompleted
		d.NextSlot = ""
		return d
	}
	d.Status = tasks.DraftEnriched
	d.NextSlot = tasks.SlotDateTime
	return d
}

func (t *Transitioner) dateTime(ctx context.Context, d tasks.Draft, msg string) tasks.Draft {
	dt := t.normalizer.Normalize(ctx, msg, t.now())

	hora := dt.Time
	if hora == "" {
		if clock, ok := datetime.ExtractTime(msg); ok {
			hora = clock
		}
	}
	if hora != "" {
		d.Hora = hora
	}

	// A known date survives unless the answer names a day itself.
	if d.Fecha == "" || datetime.HasExplicitDate(msg) {
		if dt.Date != "" {
			d.Fecha = dt.Date
		}
	}

	switch {
	case d.HasDateTime():
		d.Status = tasks.DraftCompleted
		d.NextSlot = ""
	case d.Fecha != "" || d.Hora != "":
		d.Status = tasks.DraftEnriched
		d.NextSlot = tasks.SlotDateTime
	default:
		d.Status = tasks.DraftCreated
		d.NextSlot = tasks.SlotDateTime
	}
	return d
}

func (t *Transitioner) other(d tasks.Draft, msg string) tasks.Draft {
	d.Description = strings.TrimSpace(msg)
	d.Status = tasks.DraftCompleted
	d.NextSlot = ""
	return d
}
