package recall

import (
	"math"
	"testing"
)

func TestQuantileNormalizeSmallSamplePassthrough(t *testing.T) {
	in := []float64{3.0, 1.0, 2.0}
	got := QuantileNormalize(in)
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("small sample should pass through, got %v", got)
		}
	}
}

func TestQuantileNormalizeConstantPassthrough(t *testing.T) {
	in := make([]float64, 20)
	for i := range in {
		in[i] = 7.5
	}
	got := QuantileNormalize(in)
	for i := range got {
		if got[i] != 7.5 {
			t.Fatalf("constant column should pass through, got %v at %d", got[i], i)
		}
	}
}

func TestQuantileNormalizeRankOrder(t *testing.T) {
	in := []float64{5, 1, 9, 3, 7, 2, 8, 4, 6, 10, 0, 11}
	got := QuantileNormalize(in)

	for i := range in {
		for j := range in {
			if in[i] < in[j] && got[i] >= got[j] {
				t.Fatalf("rank order broken: in[%d]=%v < in[%d]=%v but out %v >= %v",
					i, in[i], j, in[j], got[i], got[j])
			}
		}
	}
	for i, v := range got {
		if v < 0 || v > 1 {
			t.Fatalf("value %v at %d outside [0,1]", v, i)
		}
	}
}

func TestQuantileNormalizeTies(t *testing.T) {
	in := []float64{1, 2, 2, 2, 3, 4, 5, 6, 7, 8}
	got := QuantileNormalize(in)
	if got[1] != got[2] || got[2] != got[3] {
		t.Fatalf("tied inputs should map to equal outputs, got %v %v %v", got[1], got[2], got[3])
	}
	// Average rank of positions 1..3 is 2, normalized by n-1.
	want := 2.0 / 9.0
	if math.Abs(got[1]-want) > 1e-9 {
		t.Fatalf("tied group rank = %v, want %v", got[1], want)
	}
}
