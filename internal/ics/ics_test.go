package ics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/claria/internal/tasks"
)

func fixedGenerator() *Generator {
	g := NewGenerator("", 0)
	g.now = func() time.Time { return time.Date(2025, 5, 30, 18, 4, 5, 0, time.UTC) }
	g.newID = func() string { return "fixed-id" }
	return g
}

func TestGenerateStartEndAndStamp(t *testing.T) {
	out, err := fixedGenerator().Generate(Event{
		Title:         "Junta",
		Date:          "2025-06-01",
		Time:          "09:00",
		DurationHours: 1,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//Claria//Calendar//ES",
		"UID:fixed-id@claria.ai",
		"DTSTAMP:20250530T180405Z",
		"DTSTART;TZID=America/Mexico_City:20250601T090000",
		"DTEND;TZID=America/Mexico_City:20250601T100000",
		"STATUS:CONFIRMED",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("Generate() output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "\r\n") {
		t.Fatalf("Generate() output is not CRLF delimited")
	}
}

func TestGenerateEscapesText(t *testing.T) {
	out, err := fixedGenerator().Generate(Event{
		Title:       "Junta; equipo, ventas",
		Description: "linea 1\nlinea 2 \\ fin",
		Location:    "Sala 3, piso 2",
		Date:        "2025-06-01",
		Time:        "09:00",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for _, want := range []string{
		`SUMMARY:Junta\; equipo\, ventas`,
		`DESCRIPTION:linea 1\nlinea 2 \\ fin`,
		`LOCATION:Sala 3\, piso 2`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("Generate() output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateNormalizesCarriageReturns(t *testing.T) {
	out, err := fixedGenerator().Generate(Event{
		Title:       "Linea1\r\nLinea2",
		Description: "a\rb",
		Date:        "2025-06-01",
		Time:        "09:00",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for _, want := range []string{`SUMMARY:Linea1\nLinea2`, "DESCRIPTION:ab\r\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Generate() output missing %q:\n%q", want, out)
		}
	}
	if got := Escape("x\ry"); got != "xy" {
		t.Fatalf("Escape(lone CR) = %q, want xy", got)
	}
}

func TestGenerateRejectsBadTimezone(t *testing.T) {
	for _, tz := range []string{
		"America/Mexico_City:20250601T090000\r\nATTENDEE:mailto:evil@example.com\r\nX",
		"Not/AZone",
		"Europe/Madrid\nX-INJECTED:1",
		"Local",
	} {
		out, err := fixedGenerator().Generate(Event{Title: "Junta", Date: "2025-06-01", Time: "09:00", Timezone: tz})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("Generate(tz=%q) error = %v, want ErrValidation", tz, err)
		}
		if strings.Contains(out, "ATTENDEE") {
			t.Fatalf("Generate(tz=%q) leaked injected lines:\n%s", tz, out)
		}
	}
	if err := ValidateTimezone("Europe/Madrid"); err != nil {
		t.Fatalf("ValidateTimezone(Europe/Madrid) error = %v", err)
	}
}

func TestGenerateFractionalDurationAndTimezone(t *testing.T) {
	out, err := fixedGenerator().Generate(Event{
		Title:         "Llamada",
		Date:          "2025-12-31",
		Time:          "23:30",
		DurationHours: 1.5,
		Timezone:      "Europe/Madrid",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(out, "DTEND;TZID=Europe/Madrid:20260101T010000") {
		t.Fatalf("Generate() end not rolled over:\n%s", out)
	}
}

func TestGenerateValidation(t *testing.T) {
	cases := []Event{
		{Title: "", Date: "2025-06-01", Time: "09:00"},
		{Title: "Junta", Date: "", Time: "09:00"},
		{Title: "Junta", Date: "2025-06-01", Time: ""},
		{Title: "Junta", Date: "01/06/2025", Time: "09:00"},
		{Title: "Junta", Date: "2025-06-01", Time: "9am"},
	}
	for _, ev := range cases {
		if _, err := fixedGenerator().Generate(ev); !errors.Is(err, ErrValidation) {
			t.Fatalf("Generate(%+v) error = %v, want ErrValidation", ev, err)
		}
	}
}

func TestForTask(t *testing.T) {
	g := fixedGenerator()
	artifact, err := g.ForTask(tasks.Task{
		Type:     tasks.TypeCalendar,
		Content:  "Junta",
		Location: "Oficina",
		Fecha:    "2025-06-01",
		Hora:     "09:00",
	})
	if err != nil {
		t.Fatalf("ForTask() error = %v", err)
	}
	if artifact.Filename != "evento_2025-06-01_0900.ics" {
		t.Fatalf("Filename = %q, want evento_2025-06-01_0900.ics", artifact.Filename)
	}
	if !strings.Contains(artifact.Content, "LOCATION:Oficina") {
		t.Fatalf("Content missing location:\n%s", artifact.Content)
	}
	if !strings.Contains(artifact.Content, "DESCRIPTION:Junta") {
		t.Fatalf("Content should describe the task by its title when no description:\n%s", artifact.Content)
	}

	if _, err := g.ForTask(tasks.Task{Type: tasks.TypeNote, Content: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("ForTask(note) error = %v, want ErrValidation", err)
	}
}
