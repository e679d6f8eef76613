package graph

import "strings"

// canonicalizer maps relation phrases onto the canonical vocabulary.
type canonicalizer struct {
	exact    map[string]string
	rules    []RelationRule // phrases lower-cased, declaration order kept
	maxLen   int
	fallback string
}

func newCanonicalizer(cfg Config) *canonicalizer {
	c := &canonicalizer{
		exact:    make(map[string]string, len(cfg.Relations)),
		rules:    make([]RelationRule, 0, len(cfg.Relations)),
		maxLen:   cfg.MaxRelationLength,
		fallback: cfg.FallbackRelation,
	}
	for _, r := range cfg.Relations {
		p := strings.ToLower(strings.TrimSpace(r.Phrase))
		if p == "" || r.Label == "" {
			continue
		}
		if _, ok := c.exact[p]; !ok {
			c.exact[p] = r.Label
		}
		c.rules = append(c.rules, RelationRule{Phrase: p, Label: r.Label})
	}
	return c
}

// canonicalize returns the canonical label for phrase. Lookup order is exact
// phrase, then the first rule whose phrase contains or is contained in the
// input, then the input itself bounded to maxLen runes.
func (c *canonicalizer) canonicalize(phrase string) string {
	s := strings.TrimSpace(phrase)
	if s == "" {
		return c.fallback
	}

	key := strings.ToLower(s)
	if label, ok := c.exact[key]; ok {
		return label
	}
	for _, r := range c.rules {
		if strings.Contains(key, r.Phrase) || strings.Contains(r.Phrase, key) {
			return r.Label
		}
	}

	if runeLen(s) > c.maxLen {
		return strings.TrimSpace(truncateRunes(s, c.maxLen))
	}
	return s
}
