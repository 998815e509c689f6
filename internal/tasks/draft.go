package tasks

// Slot names a draft field that still needs a value.
type Slot string

const (
	SlotMeetingLink Slot = "meeting_link"
	SlotDateTime    Slot = "datetime"
	// SlotFecha and SlotHora are the reminder agent's own vocabulary.
	SlotFecha Slot = "fecha"
	SlotHora  Slot = "hora"
	SlotOther Slot = "other"
)

// PendingSlot maps an enrichment candidate onto a continuation state.
// Unknown names fall through to SlotOther.
func PendingSlot(candidate Slot) Slot {
	switch candidate {
	case SlotMeetingLink:
		return SlotMeetingLink
	case SlotDateTime, SlotFecha, SlotHora:
		return SlotDateTime
	default:
		return SlotOther
	}
}

type DraftStatus string

const (
	DraftCreated   DraftStatus = "created"
	DraftEnriched  DraftStatus = "enriched"
	DraftCompleted DraftStatus = "completed"
)

// Draft is the partially filled task carried across turns.
type Draft struct {
	TaskType    Type        `json:"task_type,omitempty"`
	Status      DraftStatus `json:"status,omitempty"`
	Content     string      `json:"content,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	MeetingType MeetingType `json:"meeting_type,omitempty"`
	MeetingLink string      `json:"meeting_link,omitempty"`
	Location    string      `json:"location,omitempty"`
	// Ubicacion is an alias for Location some producers fill instead.
	Ubicacion string `json:"ubicacion,omitempty"`
	Fecha     string `json:"fecha,omitempty"`
	Hora      string `json:"hora,omitempty"`
	NextSlot  Slot   `json:"next_slot,omitempty"`
}

func (d Draft) HasDateTime() bool {
	return d.Fecha != "" && d.Hora != ""
}

func (d Draft) Terminal() bool {
	return d.Status == DraftCompleted
}
