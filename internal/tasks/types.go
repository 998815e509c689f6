package tasks

import "time"

type Type string

const (
	TypeCalendar Type = "calendar"
	TypeReminder Type = "reminder"
	TypeNote     Type = "note"
)

// Types lists every task type in listing order.
var Types = []Type{TypeCalendar, TypeReminder, TypeNote}

func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeCalendar, TypeReminder, TypeNote:
		return Type(raw), true
	default:
		return "", false
	}
}

// Scheduled reports whether tasks of this type carry a date, time and location.
func (t Type) Scheduled() bool {
	return t == TypeCalendar || t == TypeReminder
}

type Status string

const (
	StatusCreated   Status = "created"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type MeetingType string

const (
	MeetingVirtual    MeetingType = "virtual"
	MeetingPresencial MeetingType = "presencial"
)

const (
	// NoLink marks a virtual meeting the user said needs no link.
	NoLink = "no especificado"
	// UnknownLocation is stored for scheduled tasks without any location.
	UnknownLocation = "No especificado"
	// PendingLocation is the placeholder set when a meeting is in person.
	PendingLocation = "Lugar por confirmar"
)

// Task is a finalized item. Empty optional strings are absent values.
type Task struct {
	ID          string      `json:"id"`
	OwnerKey    string      `json:"user_key"`
	Type        Type        `json:"type"`
	Content     string      `json:"content"`
	Description string      `json:"description,omitempty"`
	MeetingType MeetingType `json:"meeting_type,omitempty"`
	MeetingLink string      `json:"meeting_link,omitempty"`
	Location    string      `json:"location,omitempty"`
	Fecha       string      `json:"fecha,omitempty"`
	Hora        string      `json:"hora,omitempty"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Grouped partitions an owner's tasks by type. Every type key is present.
type Grouped map[Type][]Task

func NewGrouped() Grouped {
	out := make(Grouped, len(Types))
	for _, t := range Types {
		out[t] = []Task{}
	}
	return out
}

func GroupTasks(list []Task) Grouped {
	out := NewGrouped()
	for _, task := range list {
		out[task.Type] = append(out[task.Type], task)
	}
	return out
}

func (g Grouped) Count() int {
	n := 0
	for _, list := range g {
		n += len(list)
	}
	return n
}
