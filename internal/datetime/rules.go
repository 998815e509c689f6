package datetime

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

var monthNumbers = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
}

var weekdayNumbers = map[string]time.Weekday{
	"domingo": time.Sunday, "lunes": time.Monday, "martes": time.Tuesday,
	"miercoles": time.Wednesday, "miércoles": time.Wednesday,
	"jueves": time.Thursday, "viernes": time.Friday,
	"sabado": time.Saturday, "sábado": time.Saturday,
}

func mustRule(pattern string) *regexp2.Regexp {
	return regexp2.MustCompile(pattern, regexp2.IgnoreCase)
}

var (
	isoDateRe   = mustRule(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDateRe = mustRule(`\b(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?\b`)
	monthDateRe = mustRule(`\b(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)(?:\s+(?:de|del)\s+(\d{4}))?\b`)
	morningRe   = mustRule(`\bde\s+la\s+ma[nñ]ana\b`)
	afterTomRe  = mustRule(`\bpasado\s+ma[nñ]ana\b`)
	tomorrowRe  = mustRule(`\bma[nñ]ana\b`)
	todayRe     = mustRule(`\bhoy\b`)
	weekdayRe   = mustRule(`\b(lunes|martes|mi[eé]rcoles|jueves|viernes|s[áa]bado|domingo)\b`)
	clockRe     = mustRule(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	meridiemRe  = mustRule(`\b(\d{1,2})(?::([0-5]\d))?\s*((?:a\.?\s?m\.?|p\.?\s?m\.?)(?!\p{L}))`)
)

// RuleNormalizer resolves dates and times without a completion provider.
type RuleNormalizer struct{}

func NewRuleNormalizer() *RuleNormalizer { return &RuleNormalizer{} }

func (RuleNormalizer) Normalize(_ context.Context, text string, now time.Time) Result {
	return Result{Date: ResolveDate(text, now), Time: ResolveTime(text)}
}

// ResolveDate returns the first date expression in text relative to now.
// Dates without a year that already passed roll into next year. Weekdays
// resolve to their next occurrence, never today.
func ResolveDate(text string, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if m := find(isoDateRe, text); m != nil {
		return canonical(group(m, 1)+"-"+group(m, 2)+"-"+group(m, 3), DateLayout)
	}
	if m := find(monthDateRe, text); m != nil {
		day, _ := strconv.Atoi(group(m, 1))
		month := monthNumbers[strings.ToLower(group(m, 2))]
		return calendarDate(today, day, month, group(m, 3))
	}
	if m := find(slashDateRe, text); m != nil {
		day, _ := strconv.Atoi(group(m, 1))
		month, _ := strconv.Atoi(group(m, 2))
		if month >= 1 && month <= 12 {
			return calendarDate(today, day, time.Month(month), group(m, 3))
		}
	}

	relative := replaceAll(morningRe, text, " ")
	switch {
	case find(afterTomRe, relative) != nil:
		return today.AddDate(0, 0, 2).Format(DateLayout)
	case find(tomorrowRe, relative) != nil:
		return today.AddDate(0, 0, 1).Format(DateLayout)
	case find(todayRe, relative) != nil:
		return today.Format(DateLayout)
	}

	if m := find(weekdayRe, text); m != nil {
		target := weekdayNumbers[strings.ToLower(group(m, 1))]
		delta := (int(target) - int(today.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return today.AddDate(0, 0, delta).Format(DateLayout)
	}
	return ""
}

// ResolveTime returns HH:MM from a spoken "a las" phrase, a 24h clock
// or an hour with an am/pm marker.
func ResolveTime(text string) string {
	if clock, ok := ExtractTime(text); ok {
		return clock
	}
	if m := find(clockRe, text); m != nil {
		return canonical(group(m, 1)+":"+group(m, 2), TimeLayout)
	}
	if m := find(meridiemRe, text); m != nil {
		if clock, ok := resolveSpokenTime(group(m, 1), group(m, 2), group(m, 3)); ok {
			return clock
		}
	}
	return ""
}

func calendarDate(today time.Time, day int, month time.Month, yearRaw string) string {
	year := today.Year()
	explicitYear := yearRaw != ""
	if explicitYear {
		year, _ = strconv.Atoi(yearRaw)
		if year < 100 {
			year += 2000
		}
	}
	candidate := time.Date(year, month, day, 0, 0, 0, 0, today.Location())
	if candidate.Day() != day {
		return ""
	}
	if !explicitYear && candidate.Before(today) {
		candidate = candidate.AddDate(1, 0, 0)
	}
	return candidate.Format(DateLayout)
}

func find(re *regexp2.Regexp, text string) *regexp2.Match {
	m, err := re.FindStringMatch(text)
	if err != nil {
		return nil
	}
	return m
}

func replaceAll(re *regexp2.Regexp, in, repl string) string {
	out, err := re.Replace(in, repl, -1, -1)
	if err != nil {
		return in
	}
	return out
}
