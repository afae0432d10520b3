package personalize

import (
	"math"
	"strings"

	"github.com/wearlane/recsys/catalog"
)

// similarityScore rates how similar two products are:
//
//	name keyword overlap   up to +5.0
//	same primary color     +4.0
//	same category          +3.0
//	each shared color      +2.0
//	price within 20%       +1.5
func similarityScore(a, b *catalog.Product) float64 {
	score := nameSimilarity(a.Name, b.Name)

	if a.PrimaryColor != "" && b.PrimaryColor != "" &&
		strings.EqualFold(a.PrimaryColor, b.PrimaryColor) {
		score += 4.0
	}

	if a.ProductGroupName != "" && a.ProductGroupName == b.ProductGroupName {
		score += 3.0
	}

	if a.Colors != "" && b.Colors != "" {
		score += 2.0 * float64(colorOverlap(a.Colors, b.Colors))
	}

	if a.Price > 0 && b.Price > 0 {
		diff := math.Abs(a.Price-b.Price) / math.Max(a.Price, b.Price)
		if diff <= 0.2 {
			score += 1.5
		}
	}
	return score
}

// colorOverlap counts shared entries between two comma-separated color lists.
func colorOverlap(colors1, colors2 string) int {
	set := make(map[string]struct{})
	for _, c := range strings.Split(colors1, ",") {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			set[c] = struct{}{}
		}
	}
	overlap := 0
	seen := make(map[string]struct{})
	for _, c := range strings.Split(colors2, ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := set[c]; ok {
			overlap++
		}
	}
	return overlap
}
