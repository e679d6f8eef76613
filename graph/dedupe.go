package graph

import (
	"sort"
	"strings"
	"unicode"
)

// maxLengthGap bounds the rune length difference of two names that match by
// containment, so short shared substrings do not merge unrelated entities.
const maxLengthGap = 3

// AliasTable maps a discarded normalized name to the canonical id it was
// merged into.
type AliasTable map[string]string

// Resolve returns the canonical id for name using a single lookup.
func (a AliasTable) Resolve(name string) string {
	if c, ok := a[name]; ok {
		return c
	}
	return name
}

// Flatten rewrites every alias to the end of its chain so a single Resolve
// reaches the final canonical id. Cycles stop at the last unvisited name.
func (a AliasTable) Flatten() {
	for name := range a {
		seen := map[string]bool{name: true}
		target := a[name]
		for {
			next, ok := a[target]
			if !ok || seen[target] {
				break
			}
			seen[target] = true
			target = next
		}
		a[name] = target
	}
}

// stripName removes decoration characters and all whitespace.
func stripName(s string) string {
	return strings.Map(func(r rune) rune {
		if isDecoration(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// IsSimilar reports whether two normalized names denote the same entity:
// equal after stripping decoration, or one containing the other with a
// length gap of at most three runes.
func IsSimilar(a, b string) bool {
	if a == b {
		return true
	}
	return similarStripped(stripName(a), stripName(b))
}

func similarStripped(ca, cb string) bool {
	if ca == cb {
		return true
	}
	if strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		gap := runeLen(ca) - runeLen(cb)
		if gap < 0 {
			gap = -gap
		}
		return gap <= maxLengthGap
	}
	return false
}

// resolver is the working state of one MergeDuplicates call.
type resolver struct {
	nodes    []Node
	stripped []string
	aliases  AliasTable

	// Blocking index, nil when scanning linearly. contains maps a rune to the
	// entries whose stripped name contains it; first maps a rune to the
	// entries whose stripped name starts with it.
	contains map[rune][]int
	first    map[rune][]int
	empty    []int
}

// MergeDuplicates clusters near-duplicate nodes in a single ordered pass.
// Each node is merged into the first accepted canonical entry it is similar
// to; otherwise it becomes a new entry. When len(nodes) exceeds
// blockingThreshold (and the threshold is positive) candidates are drawn
// from a rune index; the result is identical to the linear scan.
func MergeDuplicates(nodes []Node, blockingThreshold int) ([]Node, AliasTable) {
	r := &resolver{
		nodes:   make([]Node, 0, len(nodes)),
		aliases: make(AliasTable),
	}
	if blockingThreshold > 0 && len(nodes) > blockingThreshold {
		r.contains = make(map[rune][]int)
		r.first = make(map[rune][]int)
	}

	for _, n := range nodes {
		s := stripName(n.ID)
		if i, ok := r.match(n.ID, s); ok {
			r.merge(i, n)
			continue
		}
		r.add(n, s)
	}
	return r.nodes, r.aliases
}

func (r *resolver) indexed() bool {
	return r.contains != nil
}

// match returns the first canonical entry similar to name.
func (r *resolver) match(name, stripped string) (int, bool) {
	if !r.indexed() || stripped == "" {
		for i := range r.nodes {
			if r.nodes[i].ID == name || similarStripped(stripped, r.stripped[i]) {
				return i, true
			}
		}
		return 0, false
	}

	for _, i := range r.candidates(stripped) {
		if r.nodes[i].ID == name || similarStripped(stripped, r.stripped[i]) {
			return i, true
		}
	}
	return 0, false
}

// candidates lists, in insertion order, every entry that can be similar to
// stripped: entries containing its first rune (it may be their substring),
// entries starting with one of its runes (they may be its substring), and
// entries whose stripped name is empty.
func (r *resolver) candidates(stripped string) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(ids []int) {
		for _, i := range ids {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}

	head, _ := firstRune(stripped)
	add(r.contains[head])
	visited := make(map[rune]bool)
	for _, c := range stripped {
		if visited[c] {
			continue
		}
		visited[c] = true
		add(r.first[c])
	}
	add(r.empty)

	sort.Ints(out)
	return out
}

func (r *resolver) add(n Node, stripped string) {
	i := len(r.nodes)
	r.nodes = append(r.nodes, n)
	r.stripped = append(r.stripped, stripped)
	if !r.indexed() {
		return
	}
	if stripped == "" {
		r.empty = append(r.empty, i)
		return
	}
	head, _ := firstRune(stripped)
	r.first[head] = append(r.first[head], i)
	visited := make(map[rune]bool)
	for _, c := range stripped {
		if visited[c] {
			continue
		}
		visited[c] = true
		r.contains[c] = append(r.contains[c], i)
	}
}

// merge folds n into canonical entry i and records the alias.
func (r *resolver) merge(i int, n Node) {
	c := &r.nodes[i]
	if n.Degree > c.Degree {
		c.Degree = n.Degree
	}
	if n.Description != "" && c.Description == "" {
		c.Description = n.Description
	}
	if len(n.Properties) > 0 {
		merged := make(map[string]any, len(c.Properties)+len(n.Properties))
		for k, v := range c.Properties {
			merged[k] = v
		}
		for k, v := range n.Properties {
			merged[k] = v
		}
		c.Properties = merged
	}
	if n.ID != c.ID {
		r.aliases[n.ID] = c.ID
	}
}

func firstRune(s string) (rune, bool) {
	for _, c := range s {
		return c, true
	}
	return 0, false
}
