package personalize

import (
	"math"
	"testing"

	"github.com/wearlane/recsys/catalog"
)

func TestSimilarityScore(t *testing.T) {
	anchor := catalog.Product{
		ArticleID:        "a1",
		Name:             "Slim Fit Jeans",
		Price:            100,
		ProductGroupName: "Trousers",
		PrimaryColor:     "Blue",
		Colors:           "blue, navy",
	}

	tests := []struct {
		name string
		cand catalog.Product
		want float64
	}{
		{
			name: "full match",
			cand: catalog.Product{
				Name:             "Slim Fit Jeans",
				Price:            110, // within 20%
				ProductGroupName: "Trousers",
				PrimaryColor:     "blue", // case-insensitive
				Colors:           "navy, blue",
			},
			// name 5.0 + primary 4.0 + category 3.0 + 2 colors 4.0 + price 1.5
			want: 17.5,
		},
		{
			name: "category only",
			cand: catalog.Product{
				Name:             "Wool Cardigan",
				Price:            300,
				ProductGroupName: "Trousers",
			},
			want: 3.0,
		},
		{
			name: "price outside 20 percent",
			cand: catalog.Product{
				Name:  "Wool Cardigan",
				Price: 130,
			},
			want: 0.0,
		},
		{
			name: "one shared color",
			cand: catalog.Product{
				Name:   "Wool Cardigan",
				Price:  300,
				Colors: "navy, black",
			},
			want: 2.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarityScore(&anchor, &tt.cand)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("similarityScore = %v, want %v", got, tt.want)
			}
		})
	}
}
