package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, drops control characters other than newlines
// and tabs, and caps the result at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, input))
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			cleaned = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return cleaned
}

// SanitizeFields applies SanitizeString to every non-nil field in place.
func SanitizeFields(maxLen int, fields ...*string) {
	for _, field := range fields {
		if field != nil {
			*field = SanitizeString(*field, maxLen)
		}
	}
}
