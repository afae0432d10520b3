package personalize

import (
	"math"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "splits hyphens and slashes",
			in:   "Slim-Fit Jeans/Trousers",
			want: []string{"slim", "fit", "jeans", "trousers"},
		},
		{
			name: "drops stop words and short tokens",
			in:   "The Top of it",
			want: []string{"top"},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractKeywords(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("extractKeywords(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for _, w := range tt.want {
				if _, ok := got[w]; !ok {
					t.Errorf("missing keyword %q in %v", w, got)
				}
			}
		})
	}
}

func TestNameSimilarity(t *testing.T) {
	// {slim, fit, jeans} vs {straight, fit, jeans}: 2 shared of 4 total.
	got := nameSimilarity("Slim Fit Jeans", "Straight Fit Jeans")
	want := 2.0 / 4.0 * 5.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("nameSimilarity = %v, want %v", got, want)
	}

	if got := nameSimilarity("Slim Fit Jeans", "Slim Fit Jeans"); got != 5.0 {
		t.Errorf("identical names = %v, want 5.0", got)
	}
	if got := nameSimilarity("Jeans", ""); got != 0 {
		t.Errorf("empty name = %v, want 0", got)
	}
}
