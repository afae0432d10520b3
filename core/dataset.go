package core

import (
	"sort"
	"time"
)

// Transaction is one purchase event from the append-only transaction log.
type Transaction struct {
	UserID    string
	ArticleID string
	Date      time.Time
	Price     float64
}

// Customer is the preprocessed customer record. AgeBin is the five-way age
// bucket derived at preprocessing time ("<18", "18-25", "26-35", "36-50",
// "50+") and is the cohort key for age-based popularity.
type Customer struct {
	UserID string
	Age    int
	AgeBin string
}

// Article is the preprocessed catalog record used by retrieval and feature
// building. GenderTag is inferred once at preprocessing (0 unisex/unknown,
// 1 women, 2 men) and treated as immutable metadata.
type Article struct {
	ArticleID        string
	DepartmentNo     int
	ProductGroupName string
	GenderTag        int
	Price            float64
}

// Dataset is an immutable in-memory snapshot of the transaction log plus the
// customer and article tables, indexed for the access patterns of the
// retrieval rules: per-user history, per-article buyers, per-cohort members.
//
// Build it once (per process or per batch run) with NewDataset; all reads are
// safe for concurrent use.
type Dataset struct {
	transactions []Transaction

	customers map[string]Customer
	articles  map[string]Article

	byUser    map[string][]int // indices into transactions, ascending by date
	byArticle map[string][]int
	byAgeBin  map[string][]string // age bin -> user IDs

	maxDate time.Time
}

func NewDataset(transactions []Transaction, customers []Customer, articles []Article) *Dataset {
	ds := &Dataset{
		transactions: transactions,
		customers:    make(map[string]Customer, len(customers)),
		articles:     make(map[string]Article, len(articles)),
		byUser:       make(map[string][]int),
		byArticle:    make(map[string][]int),
		byAgeBin:     make(map[string][]string),
	}
	for _, c := range customers {
		ds.customers[c.UserID] = c
		if c.AgeBin != "" {
			ds.byAgeBin[c.AgeBin] = append(ds.byAgeBin[c.AgeBin], c.UserID)
		}
	}
	for _, a := range articles {
		ds.articles[a.ArticleID] = a
	}
	for i, t := range transactions {
		ds.byUser[t.UserID] = append(ds.byUser[t.UserID], i)
		ds.byArticle[t.ArticleID] = append(ds.byArticle[t.ArticleID], i)
		if t.Date.After(ds.maxDate) {
			ds.maxDate = t.Date
		}
	}
	for _, idx := range ds.byUser {
		sort.Slice(idx, func(i, j int) bool {
			return transactions[idx[i]].Date.Before(transactions[idx[j]].Date)
		})
	}
	return ds
}

// MaxDate is the reference "now" of the snapshot: the latest transaction date.
func (ds *Dataset) MaxDate() time.Time { return ds.maxDate }

// AsOf returns a snapshot truncated to transactions on or before cutoff, so
// offline feature builds can compute aggregates without seeing the label
// window. Customer and article tables carry over unchanged.
func (ds *Dataset) AsOf(cutoff time.Time) *Dataset {
	kept := make([]Transaction, 0, len(ds.transactions))
	for _, t := range ds.transactions {
		if !t.Date.After(cutoff) {
			kept = append(kept, t)
		}
	}
	customers := make([]Customer, 0, len(ds.customers))
	for _, c := range ds.customers {
		customers = append(customers, c)
	}
	articles := make([]Article, 0, len(ds.articles))
	for _, a := range ds.articles {
		articles = append(articles, a)
	}
	return NewDataset(kept, customers, articles)
}

// Len returns the number of transactions in the snapshot.
func (ds *Dataset) Len() int { return len(ds.transactions) }

// At returns the transaction at index i.
func (ds *Dataset) At(i int) Transaction { return ds.transactions[i] }

// Customer looks up a customer record by user ID.
func (ds *Dataset) Customer(userID string) (Customer, bool) {
	c, ok := ds.customers[userID]
	return c, ok
}

// Article looks up an article record by article ID.
func (ds *Dataset) Article(articleID string) (Article, bool) {
	a, ok := ds.articles[articleID]
	return a, ok
}

// UserTransactions returns the user's transactions in ascending date order.
// Missing user yields an empty slice, not an error.
func (ds *Dataset) UserTransactions(userID string) []Transaction {
	idx := ds.byUser[userID]
	out := make([]Transaction, len(idx))
	for i, j := range idx {
		out[i] = ds.transactions[j]
	}
	return out
}

// ArticleTransactions returns every transaction of one article.
func (ds *Dataset) ArticleTransactions(articleID string) []Transaction {
	idx := ds.byArticle[articleID]
	out := make([]Transaction, len(idx))
	for i, j := range idx {
		out[i] = ds.transactions[j]
	}
	return out
}

// ArticleBuyers returns the distinct user IDs that purchased an article.
func (ds *Dataset) ArticleBuyers(articleID string) map[string]struct{} {
	idx := ds.byArticle[articleID]
	buyers := make(map[string]struct{}, len(idx))
	for _, j := range idx {
		buyers[ds.transactions[j].UserID] = struct{}{}
	}
	return buyers
}

// UsersInAgeBin returns the user IDs belonging to a cohort.
func (ds *Dataset) UsersInAgeBin(ageBin string) []string {
	return ds.byAgeBin[ageBin]
}

// ActiveUsers returns the distinct user IDs that appear in the transaction
// log, in no particular order.
func (ds *Dataset) ActiveUsers() []string {
	out := make([]string, 0, len(ds.byUser))
	for uid := range ds.byUser {
		out = append(out, uid)
	}
	return out
}
