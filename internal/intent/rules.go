package intent

import (
	"context"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/antoniostano/claria/internal/tasks"
)

// RuleStage decides when its pattern matches the lower-cased utterance.
type RuleStage struct {
	name    string
	pattern *regexp2.Regexp
	result  Result
}

func NewRuleStage(name, pattern string, result Result) *RuleStage {
	return &RuleStage{
		name:    name,
		pattern: regexp2.MustCompile(pattern, regexp2.IgnoreCase),
		result:  result,
	}
}

func (r *RuleStage) Name() string { return r.name }

func (r *RuleStage) Decide(_ context.Context, text string) (Result, bool) {
	ok, err := r.pattern.MatchString(strings.ToLower(text))
	if err != nil || !ok {
		return Result{}, false
	}
	return r.result, true
}

// taskNouns anchors counting and showing verbs to the assistant's own
// records, so "¿cuántos gigas me quedan?" is not a listing.
const taskNouns = `(recordatorios|tareas|notas|eventos|citas|reuniones|pendientes)\b`

// DefaultRules is the deterministic table consulted before any provider.
// Reminder verbs win over everything. Listing phrases go before the
// calendar rule because "mi agenda" would otherwise read as scheduling.
func DefaultRules() []Stage {
	return []Stage{
		NewRuleStage("rule_reminder",
			`\brecuerdame\b|\brecuérdame\b`,
			Result{Macro: MacroTask, TaskType: tasks.TypeReminder}),
		NewRuleStage("rule_task_query",
			`\bqu[eé] hay\b|\bqu[eé] tengo\b|`+
				`\b(cu[aá]nt[oa]s|mu[eé]strame|mostrar)( (mis|las|los))? `+taskNouns+`|`+
				`\btareas activas\b|\bqu[eé] eventos tengo\b|\bmi agenda\b|\bagenda hoy\b|`+
				`\bmis `+taskNouns,
			Result{Macro: MacroTaskQuery}),
		NewRuleStage("rule_calendar",
			`\bagenda\b|\bagendar\b|\breunion\b|\breunión\b|\bcalendario\b|\bcita\b`,
			Result{Macro: MacroTask, TaskType: tasks.TypeCalendar}),
		NewRuleStage("rule_note",
			`\banota\b|\bnota\b|\bguardar\b|\bguarda\b`,
			Result{Macro: MacroTask, TaskType: tasks.TypeNote}),
	}
}
