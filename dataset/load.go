// Package dataset loads the preprocessed CSV snapshots into the in-memory
// structures the batch pipeline works on.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wearlane/recsys/core"
)

// File names the preprocessing step writes into the data directory.
const (
	TransactionsFile = "processed_transactions.csv"
	CustomersFile    = "processed_customers.csv"
	ArticlesFile     = "processed_articles.csv"
)

// Load reads all three snapshot files from dir and builds the indexed
// dataset. Missing files are reported as DATA_UNAVAILABLE naming the
// preprocessing step.
func Load(dir string) (*core.Dataset, error) {
	transactions, err := LoadTransactions(filepath.Join(dir, TransactionsFile))
	if err != nil {
		return nil, err
	}
	customers, err := LoadCustomers(filepath.Join(dir, CustomersFile))
	if err != nil {
		return nil, err
	}
	articles, err := LoadArticles(filepath.Join(dir, ArticlesFile))
	if err != nil {
		return nil, err
	}
	return core.NewDataset(transactions, customers, articles), nil
}

// LoadTransactions reads the transaction log. Required columns: customer_id,
// article_id, t_dat (YYYY-MM-DD); price is optional and defaults to 0.
func LoadTransactions(path string) ([]core.Transaction, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	col, err := columnIndex(header, path, "customer_id", "article_id", "t_dat")
	if err != nil {
		return nil, err
	}
	priceIdx := optionalColumn(header, "price")

	out := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse("2006-01-02", row[col["t_dat"]])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: parse t_dat: %w", path, i+2, err)
		}
		t := core.Transaction{
			UserID:    row[col["customer_id"]],
			ArticleID: row[col["article_id"]],
			Date:      date,
		}
		if priceIdx >= 0 {
			t.Price = parseFloatOr(row[priceIdx], 0)
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadCustomers reads the customer table. Required columns: customer_id;
// age and age_bin are optional.
func LoadCustomers(path string) ([]core.Customer, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	col, err := columnIndex(header, path, "customer_id")
	if err != nil {
		return nil, err
	}
	ageIdx := optionalColumn(header, "age")
	binIdx := optionalColumn(header, "age_bin")

	out := make([]core.Customer, 0, len(rows))
	for _, row := range rows {
		c := core.Customer{UserID: row[col["customer_id"]]}
		if ageIdx >= 0 {
			c.Age = int(parseFloatOr(row[ageIdx], 0))
		}
		if binIdx >= 0 {
			c.AgeBin = row[binIdx]
		}
		out = append(out, c)
	}
	return out, nil
}

// LoadArticles reads the article table. Required columns: article_id; the
// metadata columns are optional and default to their feature fills.
func LoadArticles(path string) ([]core.Article, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	col, err := columnIndex(header, path, "article_id")
	if err != nil {
		return nil, err
	}
	deptIdx := optionalColumn(header, "department_no")
	groupIdx := optionalColumn(header, "product_group_name")
	genderIdx := optionalColumn(header, "gender_tag")
	priceIdx := optionalColumn(header, "price")

	out := make([]core.Article, 0, len(rows))
	for _, row := range rows {
		a := core.Article{
			ArticleID:    row[col["article_id"]],
			DepartmentNo: -1,
		}
		if deptIdx >= 0 {
			a.DepartmentNo = int(parseFloatOr(row[deptIdx], -1))
		}
		if groupIdx >= 0 {
			a.ProductGroupName = row[groupIdx]
		}
		if genderIdx >= 0 {
			a.GenderTag = int(parseFloatOr(row[genderIdx], 0))
		}
		if priceIdx >= 0 {
			a.Price = parseFloatOr(row[priceIdx], 0)
		}
		out = append(out, a)
	}
	return out, nil
}

func readCSV(path string) (rows [][]string, header []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataUnavailable,
				fmt.Sprintf("snapshot %s not found; run preprocessing first", path))
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = false
	header, err = r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s header: %w", path, err)
	}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

func columnIndex(header []string, path string, required ...string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, name)
		}
	}
	return col, nil
}

func optionalColumn(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}
