// Package policy screens user utterances before they are handled or logged.
package policy

import (
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

type redaction struct {
	re     *regexp2.Regexp
	marker string
}

// Cards run before phones so a card number is not read as a phone.
// Links keep their host and lose the path, which often carries meeting
// ids or passcodes.
var redactions = []redaction{
	{regexp2.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`, regexp2.None), "[REDACTED_EMAIL]"},
	{regexp2.MustCompile(`(https?://[^/\s]+)/\S+`, regexp2.IgnoreCase), "$1/[REDACTED_PATH]"},
	{regexp2.MustCompile(`\b(?:\d[ -]*?){13,19}\b`, regexp2.None), "[REDACTED_CARD]"},
	{regexp2.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`, regexp2.None), "[REDACTED_PHONE]"},
}

const maxLoggedRunes = 160

// RedactPII masks emails, link paths, card numbers and phone numbers.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, r := range redactions {
		next, err := r.re.Replace(out, r.marker, -1, -1)
		if err != nil {
			continue
		}
		changed = changed || next != out
		out = next
	}
	return out, changed
}

// ForLog is RedactPII capped to a length suitable for a log field.
func ForLog(input string) string {
	out, _ := RedactPII(input)
	if utf8.RuneCountInString(out) <= maxLoggedRunes {
		return out
	}
	return string([]rune(out)[:maxLoggedRunes]) + "…"
}
