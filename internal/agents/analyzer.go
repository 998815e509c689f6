// Package agents turns a classified task utterance into an initial draft
// and decides which slots still have to be asked for.
package agents

import (
	"context"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/antoniostano/claria/internal/datetime"
	"github.com/antoniostano/claria/internal/tasks"
)

// Virtual keywords are tested before presencial ones: "llamada en la
// oficina" is a call.
var (
	VirtualKeywords = []string{
		"video llamada", "videollamada", "llamada", "zoom", "teams",
		"google meet", "meet", "virtual", "online", "remoto",
		"conferencia", "skype", "webex",
	}
	PresencialKeywords = []string{
		"presencial", "en persona", "en oficina", "físico",
		"cara a cara", "en el sitio", "en la empresa",
		"sala de juntas", "oficina", "local",
	}
)

var urlRe = regexp2.MustCompile(`https?://\S+`, regexp2.IgnoreCase)

// FindURL returns the first http(s) link in text.
func FindURL(text string) (string, bool) {
	m, err := urlRe.FindStringMatch(text)
	if err != nil || m == nil {
		return "", false
	}
	return m.String(), true
}

// ContainsAny reports whether the lower-cased text contains any keyword.
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Analysis is the transient signal set extracted from one utterance.
type Analysis struct {
	Fecha         string            `json:"fecha,omitempty"`
	Hora          string            `json:"hora,omitempty"`
	MeetingType   tasks.MeetingType `json:"meeting_type,omitempty"`
	Location      string            `json:"location,omitempty"`
	MissingFields []tasks.Slot      `json:"missing_fields"`
}

func (a Analysis) Missing(slot tasks.Slot) bool {
	for _, s := range a.MissingFields {
		if s == slot {
			return true
		}
	}
	return false
}

type Analyzer struct {
	normalizer datetime.Normalizer
	now        func() time.Time
}

func NewAnalyzer(normalizer datetime.Normalizer, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{normalizer: normalizer, now: now}
}

// Analyze always normalizes the datetime. Missing fields are only
// reported for calendar tasks; reminders apply their own policy.
func (a *Analyzer) Analyze(ctx context.Context, text string, taskType tasks.Type) Analysis {
	dt := a.normalizer.Normalize(ctx, text, a.now())
	out := Analysis{Fecha: dt.Date, Hora: dt.Time, MissingFields: []tasks.Slot{}}

	switch {
	case ContainsAny(text, VirtualKeywords):
		out.MeetingType = tasks.MeetingVirtual
	case ContainsAny(text, PresencialKeywords):
		out.MeetingType = tasks.MeetingPresencial
		out.Location = tasks.PendingLocation
	}

	if taskType == tasks.TypeCalendar {
		if out.Fecha == "" || out.Hora == "" {
			out.MissingFields = append(out.MissingFields, tasks.SlotDateTime)
		}
		if _, hasURL := FindURL(text); out.MeetingType == tasks.MeetingVirtual && !hasURL {
			out.MissingFields = append(out.MissingFields, tasks.SlotMeetingLink)
		}
	}
	return out
}
