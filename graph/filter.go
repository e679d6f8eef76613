package graph

import (
	"strings"
	"unicode"
)

// maxEntityNameRunes is the length above which a name is assumed to be a
// sentence rather than an entity.
const maxEntityNameRunes = 50

// specialChars disqualify an entity name.
const specialChars = "!@#$%^&*()+=[]{}|\\:;\"'<>?/"

var stopEntitiesZH = toSet(
	// single-rune generic words
	"人", "事", "物", "时", "地", "年", "月", "日",
	"个", "种", "类", "次", "度", "量", "值", "率",
	// modifiers
	"主动", "被动", "积极", "消极", "重要", "次要",
	"大", "小", "多", "少", "高", "低", "快", "慢",
	"好", "坏", "新", "旧", "长", "短", "期限",
	// pronouns
	"我", "你", "他", "她", "它", "我们", "你们", "他们",
	"这", "那", "这个", "那个", "这些", "那些",
	// time words
	"现在", "过去", "未来", "当前", "之前", "之后",
	"今天", "明天", "昨天",
)

var stopEntitiesEN = toSet(
	"a", "an", "the",
	"i", "you", "he", "she", "it", "we", "they",
	"me", "him", "her", "us", "them",
	"my", "your", "his", "its", "our", "their",
	"mine", "yours", "hers", "ours", "theirs",
	"this", "that", "these", "those",
	"be", "is", "am", "are", "was", "were", "been", "being",
	"do", "does", "did", "have", "has", "had",
	"will", "would", "shall", "should", "can", "could", "may", "might", "must",
	"in", "on", "at", "by", "for", "with", "about", "to", "from", "of",
	"and", "or", "but", "if", "because", "as", "while", "when",
	"not", "no", "yes", "so", "very", "just", "now", "then", "here", "there",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ShouldFilterEntity reports whether name is too generic or malformed to be
// kept as an entity: empty, a stop entity for its language, a single rune,
// all digits, containing special characters, or longer than 50 runes.
func ShouldFilterEntity(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}

	if DetectLanguage(name) == LangZH {
		if stopEntitiesZH[name] {
			return true
		}
	} else if stopEntitiesEN[strings.ToLower(name)] {
		return true
	}

	n := runeLen(name)
	switch {
	case n == 1:
		return true
	case n > maxEntityNameRunes:
		return true
	case isAllDigits(name):
		return true
	case strings.ContainsAny(name, specialChars):
		return true
	}
	return false
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
