// Package content turns a raw task utterance into a short title.
package content

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

var months = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "setiembre", "octubre",
	"noviembre", "diciembre",
}

var weekdays = []string{
	"lunes", "martes", "miércoles", "miercoles", "jueves",
	"viernes", "sábado", "sabado", "domingo",
}

var leadingInstructions = []string{
	"por favor",
	"porfa",
	"favor de",
	"que",
	"quiero",
	"necesito",
	"recuerdame",
	"recuérdame",
	"recordar",
	"agenda",
	"agendar",
	"agrega",
	"agregar",
	"añade",
	"añadir",
	"programa",
	"programar",
	"crea",
	"crear",
	"haz",
	"hacer",
}

type substitution struct {
	re   *regexp2.Regexp
	repl string
}

func sub(pattern, repl string) substitution {
	return substitution{re: regexp2.MustCompile(pattern, regexp2.None), repl: repl}
}

// Order matters: dates and times go before whitespace is collapsed.
var substitutions = []substitution{
	sub(`\bpara\b`, "de"),
	sub(`\b(pasado\s+mañana|pasado\s+manana)\b`, " "),
	sub(`\b(mañana|manana|hoy|esta\s+semana|este\s+fin\s+de\s+semana|fin\s+de\s+semana)\b`, " "),
	sub(`\bpr[oó]ximos?\s+\d+\s+d[ií]as\b`, " "),
	sub(`\b(`+strings.Join(weekdays, "|")+`)\b`, " "),
	sub(`\b\d{4}-\d{2}-\d{2}\b`, " "),
	sub(`\b\d{1,2}[/-]\d{1,2}([/-]\d{2,4})?\b`, " "),
	sub(`\b\d{1,2}\s+de\s+(`+strings.Join(months, "|")+`)\b`, " "),
	sub(`\b(a\s+las|a\s+la|al)\s+\d{1,2}(:\d{2})?\s*(am|pm|a\.m\.|p\.m\.)?\b`, " "),
	sub(`\b\d{1,2}(:\d{2})?\s*(am|pm|a\.m\.|p\.m\.)\b`, " "),
	sub(`\bde\s+la\s+(mañana|manana|tarde|noche)\b`, " "),
	sub(`\ben\s+(el|la|los|las)\b`, " "),
	sub(`\b(mi|mis|tu|tus|su|sus|nuestro|nuestra|nuestros|nuestras)\b`, " "),
}

var whitespace = regexp2.MustCompile(`\s+`, regexp2.None)

const maxPasses = 8

// Synthesize returns the task title for text. It is idempotent: feeding
// its output back in returns the same string.
func Synthesize(text string) string {
	original := strings.TrimSpace(text)
	if original == "" {
		return ""
	}
	current := original
	for i := 0; i < maxPasses; i++ {
		next := clean(current)
		if next == "" {
			return current
		}
		if next == current {
			return next
		}
		current = next
	}
	return current
}

func clean(text string) string {
	t := stripLeading(strings.ToLower(strings.TrimSpace(text)))
	for _, s := range substitutions {
		t = replace(s.re, t, s.repl)
	}
	t = strings.Trim(replace(whitespace, t, " "), " -:,.")
	if t == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(t)
	return string(unicode.ToUpper(r)) + t[size:]
}

func stripLeading(t string) string {
	for changed := true; changed; {
		changed = false
		for _, phrase := range leadingInstructions {
			if strings.HasPrefix(t, phrase+" ") {
				t = strings.TrimLeftFunc(t[len(phrase):], unicode.IsSpace)
				changed = true
				break
			}
		}
	}
	return t
}

func replace(re *regexp2.Regexp, in, repl string) string {
	out, err := re.Replace(in, repl, -1, -1)
	if err != nil {
		return in
	}
	return out
}
