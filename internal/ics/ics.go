// Package ics renders RFC 5545 calendar invites for finalized tasks.
package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/antoniostano/claria/internal/tasks"
)

const (
	DefaultTimezone = "America/Mexico_City"
	DefaultHours    = 1.0

	stampLayout = "20060102T150405Z"
	localLayout = "20060102T150405"
	uidDomain   = "claria.ai"
)

var ErrValidation = errors.New("invalid calendar event")

type Event struct {
	Title       string
	Description string
	Location    string
	// Date is YYYY-MM-DD and Time is HH:MM, both wall clock in Timezone.
	Date          string
	Time          string
	DurationHours float64
	Timezone      string
}

// Artifact is a rendered invite ready for download.
type Artifact struct {
	Content  string `json:"ics_content"`
	Filename string `json:"filename"`
}

type Generator struct {
	timezone string
	hours    float64
	now      func() time.Time
	newID    func() string
}

func NewGenerator(timezone string, defaultDuration time.Duration) *Generator {
	g := &Generator{
		timezone: strings.TrimSpace(timezone),
		hours:    defaultDuration.Hours(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	if g.timezone == "" {
		g.timezone = DefaultTimezone
	}
	if g.hours <= 0 {
		g.hours = DefaultHours
	}
	return g
}

// Generate renders ev. Missing or unparseable title, date or time, or a
// timezone that is not an IANA zone name, yields an error wrapping
// ErrValidation.
func (g *Generator) Generate(ev Event) (string, error) {
	title := strings.TrimSpace(ev.Title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(ev.Date) == "" || strings.TrimSpace(ev.Time) == "" {
		return "", fmt.Errorf("%w: date and time are required", ErrValidation)
	}
	start, err := time.Parse("2006-01-02 15:04", strings.TrimSpace(ev.Date)+" "+strings.TrimSpace(ev.Time))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hours := ev.DurationHours
	if hours <= 0 {
		hours = g.hours
	}
	end := start.Add(time.Duration(int(hours*60)) * time.Minute)

	tz := strings.TrimSpace(ev.Timezone)
	if tz == "" {
		tz = g.timezone
	}
	if err := ValidateTimezone(tz); err != nil {
		return "", err
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Claria//Calendar//ES",
		"CALSCALE:GREGORIAN",
		"BEGIN:VEVENT",
		"UID:" + g.newID() + "@" + uidDomain,
		"DTSTAMP:" + g.now().UTC().Format(stampLayout),
		"SUMMARY:" + Escape(title),
		"DESCRIPTION:" + Escape(ev.Description),
		"LOCATION:" + Escape(ev.Location),
		"DTSTART;TZID=" + tz + ":" + start.Format(localLayout),
		"DTEND;TZID=" + tz + ":" + end.Format(localLayout),
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n"), nil
}

// ForTask builds the downloadable invite for a scheduled task.
func (g *Generator) ForTask(task tasks.Task) (*Artifact, error) {
	if !task.Type.Scheduled() {
		return nil, fmt.Errorf("%w: %s tasks have no invite", ErrValidation, task.Type)
	}
	description := task.Description
	if description == "" {
		description = task.Content
	}
	content, err := g.Generate(Event{
		Title:       task.Content,
		Description: description,
		Location:    task.Location,
		Date:        task.Fecha,
		Time:        task.Hora,
	})
	if err != nil {
		return nil, err
	}
	return &Artifact{Content: content, Filename: Filename(task.Fecha, task.Hora)}, nil
}

// ValidateTimezone accepts only names time.LoadLocation resolves. The name
// is written into TZID parameters verbatim, so control characters and the
// parameter delimiters are rejected before lookup.
func ValidateTimezone(tz string) error {
	if tz == "" || tz == "Local" || strings.ContainsAny(tz, "\r\n:;,\"") {
		return fmt.Errorf("%w: invalid timezone %q", ErrValidation, tz)
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrValidation, tz)
	}
	return nil
}

func Filename(date, clock string) string {
	return fmt.Sprintf("evento_%s_%s.ics", date, strings.ReplaceAll(clock, ":", ""))
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", "",
)

// Escape applies RFC 5545 TEXT escaping.
func Escape(text string) string {
	return escaper.Replace(text)
}
