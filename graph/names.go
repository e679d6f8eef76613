package graph

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// decorations are quotation and bracket runes stripped from names.
// ASCII apostrophes and parentheses are treated as content.
const decorations = "《》〈〉「」『』【】〔〕\"“”‘’"

func isDecoration(r rune) bool {
	return strings.ContainsRune(decorations, r)
}

// hasCJK reports whether s contains at least one Han character.
func hasCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func runeLen(s string) int {
	return len([]rune(s))
}

// collapseSpace trims s and replaces every whitespace run with one space.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeName canonicalizes an entity name: decoration characters are
// removed, whitespace is collapsed, and names longer than maxLen runes are
// shortened. CJK names keep exactly maxLen runes; other names keep their
// first two words, or maxLen runes when they are a single word.
func NormalizeName(raw string, maxLen int) string {
	if raw == "" {
		return raw
	}

	s := norm.NFC.String(raw)
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if isDecoration(r) {
			return -1
		}
		return r
	}, s)
	s = collapseSpace(s)

	if maxLen <= 0 || runeLen(s) <= maxLen {
		return s
	}
	if hasCJK(s) {
		return truncateRunes(s, maxLen)
	}
	words := strings.Fields(s)
	if len(words) > 1 {
		return strings.Join(words[:2], " ")
	}
	return truncateRunes(s, maxLen)
}
