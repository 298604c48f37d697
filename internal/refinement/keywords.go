package refinement

import (
	"strings"
	"unicode/utf8"
)

// KeywordExtractor picks the reference terms fed back into the next prompt.
type KeywordExtractor interface {
	Keywords(text string) string
}

// DefaultTopKeywords is the number of keywords in a refinement hint.
const DefaultTopKeywords = 5

var stopwords = map[string]struct{}{
	"the": {}, "is": {}, "are": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
}

// FrequencyExtractor counts lowercased whitespace-separated words, skipping
// stopwords and words of two runes or fewer. Punctuation stays attached to
// words. Ties keep the order of first appearance.
type FrequencyExtractor struct {
	TopN int
}

// Keywords returns the most frequent words joined with ", ".
func (f FrequencyExtractor) Keywords(text string) string {
	top := f.TopN
	if top <= 0 {
		top = DefaultTopKeywords
	}

	counts := make(map[string]int)
	var order []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if _, stop := stopwords[w]; stop || utf8.RuneCountInString(w) <= 2 {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	// Stable selection by count keeps first-appearance order among equals.
	picked := make([]string, 0, top)
	used := make(map[string]bool, top)
	for len(picked) < top && len(picked) < len(order) {
		best := ""
		for _, w := range order {
			if used[w] {
				continue
			}
			if best == "" || counts[w] > counts[best] {
				best = w
			}
		}
		used[best] = true
		picked = append(picked, best)
	}

	return strings.Join(picked, ", ")
}
