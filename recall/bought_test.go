package recall

import (
	"context"
	"testing"

	"github.com/wearlane/recsys/core"
)

func TestBoughtTogetherCoPurchases(t *testing.T) {
	// u1 recently bought a1. Buyers of a1 (u1, u2, u3) also bought a2 twice
	// and a3 once; a4 belongs to an unrelated user.
	data := core.NewDataset([]core.Transaction{
		{UserID: "u1", ArticleID: "a1", Date: day(t, "2020-09-21")},
		{UserID: "u2", ArticleID: "a1", Date: day(t, "2020-09-01")},
		{UserID: "u3", ArticleID: "a1", Date: day(t, "2020-09-02")},
		{UserID: "u2", ArticleID: "a2", Date: day(t, "2020-09-03")},
		{UserID: "u3", ArticleID: "a2", Date: day(t, "2020-09-04")},
		{UserID: "u3", ArticleID: "a3", Date: day(t, "2020-09-05")},
		{UserID: "u9", ArticleID: "a4", Date: day(t, "2020-09-21")},
		{UserID: "u9", ArticleID: "a5", Date: day(t, "2020-09-22")}, // sets max date
	}, nil, nil)

	src := NewBoughtTogetherSource(data)
	items, err := src.Retrieve(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	byID := make(map[string]float64)
	for _, it := range items {
		byID[it.ID] = it.Score
	}
	if byID["a2"] != 1.0 {
		t.Errorf("a2 co-purchase score = %v, want 1.0 (max-normalized)", byID["a2"])
	}
	if byID["a3"] != 0.5 {
		t.Errorf("a3 co-purchase score = %v, want 0.5", byID["a3"])
	}
	if _, ok := byID["a4"]; ok {
		t.Error("unrelated article surfaced as co-purchase")
	}
	if _, ok := byID["a1"]; ok {
		t.Error("seed article recommended back to its buyer")
	}
}

func TestBoughtTogetherSeedCap(t *testing.T) {
	var txns []core.Transaction
	// 15 recent distinct purchases; only the first 10 may expand.
	for i := 0; i < 15; i++ {
		txns = append(txns, core.Transaction{
			UserID:    "u1",
			ArticleID: string(rune('a'+i)) + "x",
			Date:      day(t, "2020-09-20"),
		})
	}
	data := core.NewDataset(txns, nil, nil)

	src := NewBoughtTogetherSource(data)
	seeds := src.recentSeeds("u1")
	if len(seeds) != src.MaxSeeds {
		t.Fatalf("seed count = %d, want %d", len(seeds), src.MaxSeeds)
	}
}

func TestBoughtTogetherNoRecentPurchases(t *testing.T) {
	data := core.NewDataset([]core.Transaction{
		{UserID: "u1", ArticleID: "a1", Date: day(t, "2020-08-01")},
		{UserID: "u2", ArticleID: "a2", Date: day(t, "2020-09-22")},
	}, nil, nil)

	src := NewBoughtTogetherSource(data)
	items, err := src.Retrieve(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("stale history should yield no co-purchases, got %v", ids(items))
	}
}
