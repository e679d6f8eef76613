package graph

import (
	"regexp"
	"strings"
)

// ellipsis marks a description shortened by the property extractor.
const ellipsis = "..."

var (
	reNumber = regexp.MustCompile(`\p{Nd}+[万千百十亿]?`)

	// reTimes are applied in order; matches are appended pattern by pattern.
	reTimes = []*regexp.Regexp{
		regexp.MustCompile(`\p{Nd}+年`),
		regexp.MustCompile(`\p{Nd}+月`),
		regexp.MustCompile(`\p{Nd}+天`),
		regexp.MustCompile(`长期|短期|中期`),
	}
)

// ExtractProperties splits a long description into a short description and
// structured values. Descriptions of at most threshold runes are returned
// unchanged together with a copy of props. Longer ones contribute their
// numeric tokens under "numbers" and temporal tokens under "times", and are
// cut to threshold runes followed by "...". A description that is already
// the output of such a cut is left alone.
func ExtractProperties(description string, props map[string]any, threshold int) (string, map[string]any) {
	out := make(map[string]any, len(props)+2)
	for k, v := range props {
		out[k] = v
	}

	n := runeLen(description)
	if n <= threshold {
		return description, out
	}
	if n == threshold+runeLen(ellipsis) && strings.HasSuffix(description, ellipsis) {
		return description, out
	}

	if numbers := reNumber.FindAllString(description, -1); len(numbers) > 0 {
		out[PropNumbers] = numbers
	}

	var times []string
	for _, re := range reTimes {
		times = append(times, re.FindAllString(description, -1)...)
	}
	if len(times) > 0 {
		out[PropTimes] = times
	}

	return truncateRunes(description, threshold) + ellipsis, out
}
