package training

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/wearlane/recsys/feature"
)

func makeRows(users, perUser, positives int) []feature.Row {
	var rows []feature.Row
	made := 0
	for u := 0; u < users; u++ {
		for i := 0; i < perUser; i++ {
			label := 0
			if made < positives {
				label = 1
				made++
			}
			rows = append(rows, feature.Row{
				UserID:    fmt.Sprintf("u%03d", u),
				ArticleID: fmt.Sprintf("a%03d_%03d", u, i),
				Label:     label,
			})
		}
	}
	return rows
}

func TestSampleNegativesRatio(t *testing.T) {
	rows := makeRows(50, 100, 100) // 100 positives, 4900 negatives
	rng := rand.New(rand.NewSource(42))

	out := SampleNegatives(rows, 4.0, rng)

	var pos, neg int
	for _, r := range out {
		if r.Label == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos != 100 {
		t.Fatalf("all positives must survive sampling, got %d of 100", pos)
	}
	// Per-user rounding makes the ratio approximate.
	ratio := float64(neg) / float64(pos)
	if math.Abs(ratio-4.0) > 0.5 {
		t.Fatalf("sampled ratio = %.2f, want 4.0 within 0.5", ratio)
	}
}

func TestSampleNegativesKeepsAllWhenUnderTarget(t *testing.T) {
	rows := makeRows(5, 10, 20) // 20 positives, 30 negatives, target 80
	rng := rand.New(rand.NewSource(1))

	out := SampleNegatives(rows, 4.0, rng)
	if len(out) != len(rows) {
		t.Fatalf("target above available negatives must keep everything, got %d of %d", len(out), len(rows))
	}
}

func TestSampleNegativesUserStratified(t *testing.T) {
	// One heavy user and several light ones; every user should keep a share.
	var rows []feature.Row
	rows = append(rows, makeRows(1, 400, 40)...)
	for u := 0; u < 10; u++ {
		for i := 0; i < 20; i++ {
			rows = append(rows, feature.Row{
				UserID:    fmt.Sprintf("light%02d", u),
				ArticleID: fmt.Sprintf("l%02d_%02d", u, i),
				Label:     0,
			})
		}
	}
	rng := rand.New(rand.NewSource(7))

	out := SampleNegatives(rows, 2.0, rng)
	negByUser := make(map[string]int)
	for _, r := range out {
		if r.Label == 0 {
			negByUser[r.UserID]++
		}
	}
	for u := 0; u < 10; u++ {
		if negByUser[fmt.Sprintf("light%02d", u)] == 0 {
			t.Fatalf("light user %d lost all negatives to the heavy user", u)
		}
	}
}

func TestSampleNegativesDeterministicForSeed(t *testing.T) {
	rows := makeRows(20, 50, 50)
	a := SampleNegatives(rows, 4.0, rand.New(rand.NewSource(9)))
	b := SampleNegatives(rows, 4.0, rand.New(rand.NewSource(9)))
	if len(a) != len(b) {
		t.Fatalf("same seed produced different sizes: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ArticleID != b[i].ArticleID {
			t.Fatalf("same seed produced different order at %d", i)
		}
	}
}
