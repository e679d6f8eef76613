package graph

import (
	"strings"
	"unicode"
)

// Language codes returned by DetectLanguage.
const (
	LangZH = "zh"
	LangEN = "en"
)

// DetectLanguage returns LangZH when more than half of the runes of the
// trimmed text are Han characters, LangEN otherwise (including empty text).
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return LangEN
	}
	var total, han int
	for _, r := range text {
		total++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if han*2 > total {
		return LangZH
	}
	return LangEN
}
