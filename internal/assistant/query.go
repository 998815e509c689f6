package assistant

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/antoniostano/claria/internal/datetime"
	"github.com/antoniostano/claria/internal/tasks"
)

const maxRowsPerType = 10

var nextDaysRe = regexp2.MustCompile(`pr[oó]ximos?\s+(\d+)\s+d[ií]as`, regexp2.IgnoreCase)

// DateRange is an inclusive span of days. A zero range matches everything.
type DateRange struct {
	Start time.Time
	End   time.Time
	Label string
}

func (r DateRange) Zero() bool { return r.Label == "" }

func (r DateRange) contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// DetectRange finds the listing window named in text.
func DetectRange(text string, now time.Time) DateRange {
	lower := strings.ToLower(text)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	single := func(d time.Time, label string) DateRange { return DateRange{Start: d, End: d, Label: label} }

	switch {
	case strings.Contains(lower, "pasado mañana") || strings.Contains(lower, "pasado manana"):
		return single(today.AddDate(0, 0, 2), "pasado mañana")
	case strings.Contains(lower, "mañana") || strings.Contains(lower, "manana"):
		return single(today.AddDate(0, 0, 1), "mañana")
	case strings.Contains(lower, "hoy"):
		return single(today, "hoy")
	case strings.Contains(lower, "esta semana"):
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return DateRange{Start: start, End: start.AddDate(0, 0, 6), Label: "esta semana"}
	}

	if m, err := nextDaysRe.FindStringMatch(lower); err == nil && m != nil {
		days, _ := strconv.Atoi(m.GroupByNumber(1).String())
		if days > 0 {
			return DateRange{
				Start: today,
				End:   today.AddDate(0, 0, days-1),
				Label: fmt.Sprintf("próximos %d días", days),
			}
		}
	}
	return DateRange{}
}

// FilterGrouped narrows dated task types to r. Notes are never filtered and
// undated calendar or reminder tasks drop out of a non-zero range.
func FilterGrouped(g tasks.Grouped, r DateRange) tasks.Grouped {
	if r.Zero() {
		return g
	}
	out := tasks.NewGrouped()
	for _, t := range tasks.Types {
		for _, task := range g[t] {
			if !t.Scheduled() {
				out[t] = append(out[t], task)
				continue
			}
			day, err := time.ParseInLocation(datetime.DateLayout, task.Fecha, r.Start.Location())
			if err == nil && r.contains(day) {
				out[t] = append(out[t], task)
			}
		}
	}
	return out
}

// Summary is the one-line count heading a listing.
func Summary(g tasks.Grouped, r DateRange) string {
	prefix := "📅 Tienes"
	if !r.Zero() {
		prefix = "📅 Para " + r.Label + ", tienes"
	}
	return fmt.Sprintf("%s %d eventos y %d recordatorios activos. Además, has guardado %d notas.",
		prefix, len(g[tasks.TypeCalendar]), len(g[tasks.TypeReminder]), len(g[tasks.TypeNote]))
}

var typeLabels = map[tasks.Type]string{
	tasks.TypeCalendar: "Eventos",
	tasks.TypeReminder: "Recordatorios",
	tasks.TypeNote:     "Notas",
}

// RenderTables draws one markdown table per type in listing order.
func RenderTables(g tasks.Grouped) string {
	parts := make([]string, 0, len(tasks.Types))
	for _, t := range tasks.Types {
		parts = append(parts, renderTable(g[t], typeLabels[t]))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func renderTable(list []tasks.Task, label string) string {
	if len(list) == 0 {
		return "### " + label + "\nSin tareas.\n"
	}
	ordered := append([]tasks.Task(nil), list...)
	sort.SliceStable(ordered, func(i, j int) bool { return less(ordered[i], ordered[j]) })

	var b strings.Builder
	fmt.Fprintf(&b, "### %s (%d)\n", label, len(ordered))
	b.WriteString("| Título | Fecha | Hora | Ubicación/Link | Creado |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for i, task := range ordered {
		if i == maxRowsPerType {
			break
		}
		created := "-"
		if !task.CreatedAt.IsZero() {
			created = task.CreatedAt.Format(datetime.DateLayout)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			cell(task.Content), cell(task.Fecha), cell(task.Hora), place(task), created)
	}
	if len(ordered) > maxRowsPerType {
		fmt.Fprintf(&b, "\nMostrando %d de %d. Faltan %d.\n", maxRowsPerType, len(ordered), len(ordered)-maxRowsPerType)
	}
	return b.String()
}

// less orders dated tasks by date then time, ahead of undated ones, which
// follow by creation.
func less(a, b tasks.Task) bool {
	da, db := a.Fecha != "", b.Fecha != ""
	if da != db {
		return da
	}
	if !da {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if a.Fecha != b.Fecha {
		return a.Fecha < b.Fecha
	}
	return clockOrLate(a.Hora) < clockOrLate(b.Hora)
}

func clockOrLate(h string) string {
	if h == "" {
		return "23:59"
	}
	return h
}

func cell(v string) string {
	v = strings.TrimSpace(strings.NewReplacer("|", " / ", "\n", " ").Replace(v))
	if v == "" {
		return "-"
	}
	return v
}

func place(task tasks.Task) string {
	link, loc := cell(task.MeetingLink), cell(task.Location)
	switch task.MeetingType {
	case tasks.MeetingVirtual:
		if link != "-" {
			return "Link: " + link
		}
		return "-"
	case tasks.MeetingPresencial:
		if loc != "-" {
			return "Ubicación: " + loc
		}
		return "-"
	}
	if link != "-" {
		return "Link: " + link
	}
	return loc
}
