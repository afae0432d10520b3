package training

import (
	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/feature"
)

// Label marks each (user, article) row positive if the user purchased the
// article inside the target period, inclusive of both endpoints. Everything
// else is negative; candidate rows are never dropped here.
func Label(rows []feature.Row, data *core.Dataset, w Windows) {
	positive := make(map[[2]string]struct{})
	for i := 0; i < data.Len(); i++ {
		t := data.At(i)
		if t.Date.Before(w.TargetStart) || t.Date.After(w.TargetEnd) {
			continue
		}
		positive[[2]string{t.UserID, t.ArticleID}] = struct{}{}
	}

	for i := range rows {
		if _, ok := positive[[2]string{rows[i].UserID, rows[i].ArticleID}]; ok {
			rows[i].Label = 1
		} else {
			rows[i].Label = 0
		}
	}
}
