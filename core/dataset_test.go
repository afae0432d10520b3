package core

import (
	"testing"
	"time"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDatasetAsOf(t *testing.T) {
	ds := NewDataset([]Transaction{
		{UserID: "u1", ArticleID: "a1", Date: day(t, "2020-09-10")},
		{UserID: "u1", ArticleID: "a2", Date: day(t, "2020-09-15")},
		{UserID: "u2", ArticleID: "a3", Date: day(t, "2020-09-20")},
	}, []Customer{
		{UserID: "u1", AgeBin: "26-35"},
		{UserID: "u2", AgeBin: "26-35"},
	}, []Article{
		{ArticleID: "a1", ProductGroupName: "Trousers"},
	})

	cut := ds.AsOf(day(t, "2020-09-15"))
	if cut.Len() != 2 {
		t.Fatalf("truncated snapshot has %d transactions, want 2", cut.Len())
	}
	if !cut.MaxDate().Equal(day(t, "2020-09-15")) {
		t.Errorf("max date = %v, want the cutoff", cut.MaxDate())
	}
	if got := cut.UserTransactions("u2"); len(got) != 0 {
		t.Errorf("u2's later purchase survived the cutoff: %v", got)
	}
	if got := cut.UserTransactions("u1"); len(got) != 2 {
		t.Errorf("u1 transactions = %d, want 2", len(got))
	}

	// Reference tables carry over even when the user has no kept transactions.
	if _, ok := cut.Customer("u2"); !ok {
		t.Error("customer table lost in truncation")
	}
	if a, ok := cut.Article("a1"); !ok || a.ProductGroupName != "Trousers" {
		t.Errorf("article table lost in truncation: %+v, %v", a, ok)
	}

	// The source snapshot is untouched.
	if ds.Len() != 3 {
		t.Errorf("source snapshot mutated: %d transactions", ds.Len())
	}
}
