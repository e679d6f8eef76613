package graph

import "strings"

// classifier infers node types. It is built once per Normalizer.
type classifier struct {
	tags      map[string]string // lower-cased tag -> taxonomy spelling
	rules     []TypeRule
	stopWords []string
}

func newClassifier(cfg Config) *classifier {
	c := &classifier{
		tags:      make(map[string]string, len(cfg.Taxonomy)),
		rules:     make([]TypeRule, 0, len(cfg.TypeRules)),
		stopWords: make([]string, 0, len(cfg.PersonStopWords)),
	}
	for _, t := range cfg.Taxonomy {
		if t.Tag == "" {
			continue
		}
		key := strings.ToLower(t.Tag)
		if _, ok := c.tags[key]; !ok {
			c.tags[key] = t.Tag
		}
	}
	for _, r := range cfg.TypeRules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		c.rules = append(c.rules, TypeRule{Tag: r.Tag, Keywords: kws})
	}
	for _, w := range cfg.PersonStopWords {
		if w = strings.ToLower(w); w != "" {
			c.stopWords = append(c.stopWords, w)
		}
	}
	return c
}

// known returns the taxonomy spelling of tag.
func (c *classifier) known(tag string) (string, bool) {
	t, ok := c.tags[strings.ToLower(strings.TrimSpace(tag))]
	return t, ok
}

// isPersonName reports whether name looks like a CJK personal name:
// two to four runes, at least one Han, and no stop word.
func (c *classifier) isPersonName(name string) bool {
	if !hasCJK(name) {
		return false
	}
	n := runeLen(name)
	if n < 2 || n > 4 {
		return false
	}
	for _, w := range c.stopWords {
		if strings.Contains(name, w) {
			return false
		}
	}
	return true
}

// infer returns the type of a node. The first satisfied rule wins:
// declared taxonomy type, person heuristic, keyword rules, then Entity.
func (c *classifier) infer(declared, name, description string) string {
	if declared != "" {
		if t, ok := c.known(declared); ok {
			return t
		}
	}

	name = strings.ToLower(name)
	if c.isPersonName(name) {
		return TypePerson
	}

	text := name + " " + strings.ToLower(description)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(text, k) {
				return r.Tag
			}
		}
	}
	return TypeEntity
}
