package recall

import (
	"context"
	"testing"
	"time"

	"github.com/wearlane/recsys/core"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRecentSourceWindow(t *testing.T) {
	data := core.NewDataset([]core.Transaction{
		{UserID: "u1", ArticleID: "a1", Date: day(t, "2020-09-20")}, // 2 days old
		{UserID: "u1", ArticleID: "a2", Date: day(t, "2020-09-17")}, // 5 days old
		{UserID: "u1", ArticleID: "a3", Date: day(t, "2020-08-18")}, // 35 days old
		{UserID: "u2", ArticleID: "a9", Date: day(t, "2020-09-22")}, // other user, sets max date
	}, nil, nil)

	src := NewRecentSource(data, 3, RuleRecentShort)
	items, err := src.Retrieve(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "a1" {
		t.Fatalf("3-day window should keep only a1, got %v", ids(items))
	}

	long := NewRecentSource(data, 7, RuleRecentLong)
	items, err = long.Retrieve(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("7-day window should keep a1 and a2, got %v", ids(items))
	}
	for _, it := range items {
		if it.ID == "a3" {
			t.Fatal("35-day-old purchase leaked into the 7-day window")
		}
		if it.Reason != RuleRecentLong {
			t.Fatalf("reason = %q, want %q", it.Reason, RuleRecentLong)
		}
	}
}

func TestRecentSourceRepeatPurchaseKeepsMax(t *testing.T) {
	data := core.NewDataset([]core.Transaction{
		{UserID: "u1", ArticleID: "a1", Date: day(t, "2020-09-16")},
		{UserID: "u1", ArticleID: "a1", Date: day(t, "2020-09-21")},
		{UserID: "u1", ArticleID: "a2", Date: day(t, "2020-09-22")},
	}, nil, nil)

	src := NewRecentSource(data, 7, RuleRecentLong)
	items, err := src.Retrieve(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("repeat purchase should collapse to one item, got %v", ids(items))
	}
	var a1 *core.Item
	for _, it := range items {
		if it.ID == "a1" {
			a1 = it
		}
	}
	// 1-day-old score, not the 6-day-old one.
	want := TimeDecayScore(1, DefaultDecayParams)
	if a1 == nil || a1.Score != want {
		t.Fatalf("a1 score = %v, want most recent purchase score %v", a1.Score, want)
	}
}

func TestRecentSourceUnknownUser(t *testing.T) {
	data := core.NewDataset([]core.Transaction{
		{UserID: "u1", ArticleID: "a1", Date: day(t, "2020-09-20")},
	}, nil, nil)

	src := NewRecentSource(data, 7, RuleRecentLong)
	items, err := src.Retrieve(context.Background(), &core.RecommendContext{UserID: "nobody"})
	if err != nil {
		t.Fatalf("unknown user should not error, got %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("unknown user should yield no items, got %v", ids(items))
	}
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
