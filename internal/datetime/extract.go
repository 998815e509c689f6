package datetime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

var dateHintRe = regexp2.MustCompile(
	`(\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}[/-]\d{1,2}([/-]\d{2,4})?\b|`+
		`\b(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)\b|`+
		`\b(lunes|martes|mi[eé]rcoles|jueves|viernes|s[áa]bado|domingo)\b|`+
		`\b(hoy|ma[nñ]ana|pasado ma[nñ]ana)\b)`,
	regexp2.IgnoreCase,
)

// HasExplicitDate reports whether text names a day in any supported form.
func HasExplicitDate(text string) bool {
	ok, err := dateHintRe.MatchString(text)
	return err == nil && ok
}

var spokenTimeRe = regexp2.MustCompile(
	`\ba\s+las?\s+(\d{1,2})(?::(\d{2}))?\s*((?:a\.?\s?m\.?|p\.?\s?m\.?)(?!\p{L})|de\s+la\s+(?:ma[nñ]ana|tarde|noche))?`,
	regexp2.IgnoreCase,
)

// ExtractTime finds "a las <h>[:mm][suffix]" and returns HH:MM. Hours
// 13-23 stand alone. Hours 1-12 need minutes or a suffix (am, pm,
// de la mañana/tarde/noche), otherwise they are ambiguous and rejected.
func ExtractTime(text string) (string, bool) {
	m, err := spokenTimeRe.FindStringMatch(text)
	for err == nil && m != nil {
		if clock, ok := resolveSpokenTime(group(m, 1), group(m, 2), group(m, 3)); ok {
			return clock, true
		}
		m, err = spokenTimeRe.FindNextMatch(m)
	}
	return "", false
}

func resolveSpokenTime(hourRaw, minuteRaw, suffixRaw string) (string, bool) {
	hour, err := strconv.Atoi(hourRaw)
	if err != nil || hour > 23 {
		return "", false
	}
	minute := 0
	if minuteRaw != "" {
		minute, err = strconv.Atoi(minuteRaw)
		if err != nil || minute > 59 {
			return "", false
		}
	}

	switch suffix := normalizeSuffix(suffixRaw); suffix {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		if minuteRaw == "" && hour < 13 {
			return "", false
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func normalizeSuffix(raw string) string {
	s := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if s == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(s, "p"), strings.HasSuffix(s, "tarde"), strings.HasSuffix(s, "noche"):
		return "pm"
	default:
		return "am"
	}
}

func group(m *regexp2.Match, n int) string {
	g := m.GroupByNumber(n)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}
