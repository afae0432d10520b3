// Package personalize generates activity-based "For You" recommendations
// from the storefront catalog.
package personalize

import "strings"

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "was": {}, "are": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "should": {},
	"could": {}, "may": {}, "might": {}, "must": {}, "can": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "i": {}, "you": {}, "he": {},
	"she": {}, "it": {}, "we": {}, "they": {},
}

// extractKeywords tokenizes a product name into lowercase keywords: hyphens
// and slashes split words, stop words and tokens of two characters or fewer
// are dropped.
func extractKeywords(text string) map[string]struct{} {
	if text == "" {
		return nil
	}
	cleaned := strings.NewReplacer("-", " ", "/", " ").Replace(strings.ToLower(text))
	out := make(map[string]struct{})
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 2 {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// nameSimilarity scores keyword overlap between two product names as Jaccard
// similarity scaled to [0, 5].
func nameSimilarity(name1, name2 string) float64 {
	k1 := extractKeywords(name1)
	k2 := extractKeywords(name2)
	if len(k1) == 0 || len(k2) == 0 {
		return 0.0
	}
	intersection := 0
	for w := range k1 {
		if _, ok := k2[w]; ok {
			intersection++
		}
	}
	union := len(k1) + len(k2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union) * 5.0
}
