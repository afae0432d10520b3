package training

import (
	"math/rand"

	"github.com/wearlane/recsys/feature"
)

// Split divides rows into train and validation sets, stratified by label so
// both sets keep the same positive rate. Both returned slices are shuffled.
func Split(rows []feature.Row, valFraction float64, rng *rand.Rand) (train, val []feature.Row) {
	var positives, negatives []feature.Row
	for _, r := range rows {
		if r.Label == 1 {
			positives = append(positives, r)
		} else {
			negatives = append(negatives, r)
		}
	}

	trainPos, valPos := splitClass(positives, valFraction, rng)
	trainNeg, valNeg := splitClass(negatives, valFraction, rng)

	train = append(trainPos, trainNeg...)
	val = append(valPos, valNeg...)
	shuffle(train, rng)
	shuffle(val, rng)
	return train, val
}

func splitClass(rows []feature.Row, valFraction float64, rng *rand.Rand) (train, val []feature.Row) {
	n := len(rows)
	nVal := int(float64(n) * valFraction)
	perm := rng.Perm(n)
	val = make([]feature.Row, 0, nVal)
	train = make([]feature.Row, 0, n-nVal)
	for i, p := range perm {
		if i < nVal {
			val = append(val, rows[p])
		} else {
			train = append(train, rows[p])
		}
	}
	return train, val
}
