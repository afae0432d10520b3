package training

import (
	"math"
	"math/rand"
	"sort"

	"github.com/wearlane/recsys/feature"
)

// SampleNegatives downsamples negative rows to roughly ratio negatives per
// positive, keeping every positive. Sampling is user-stratified: each user
// keeps a share of negatives proportional to how many they contributed, so
// heavy users cannot crowd light users out of the training set.
//
// If the target is at or above the available negatives, everything is kept.
// The returned slice is shuffled.
func SampleNegatives(rows []feature.Row, ratio float64, rng *rand.Rand) []feature.Row {
	var positives, negatives []feature.Row
	for _, r := range rows {
		if r.Label == 1 {
			positives = append(positives, r)
		} else {
			negatives = append(negatives, r)
		}
	}
	if len(positives) == 0 || len(negatives) == 0 {
		out := append([]feature.Row(nil), rows...)
		shuffle(out, rng)
		return out
	}

	target := int(float64(len(positives)) * ratio)
	if target >= len(negatives) {
		out := append(positives, negatives...)
		shuffle(out, rng)
		return out
	}

	byUser := make(map[string][]feature.Row)
	for _, r := range negatives {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}
	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users) // deterministic iteration for a given seed

	out := append([]feature.Row(nil), positives...)
	total := float64(len(negatives))
	for _, u := range users {
		userNegs := byUser[u]
		n := int(math.Round(float64(len(userNegs)) / total * float64(target)))
		if n >= len(userNegs) {
			out = append(out, userNegs...)
			continue
		}
		idx := rng.Perm(len(userNegs))[:n]
		for _, i := range idx {
			out = append(out, userNegs[i])
		}
	}

	shuffle(out, rng)
	return out
}

func shuffle(rows []feature.Row, rng *rand.Rand) {
	rng.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})
}
