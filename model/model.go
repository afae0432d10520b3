// Package model implements the ranking models and their offline evaluation.
package model

import "github.com/wearlane/recsys/core"

// RankModel scores one (user, candidate) feature row. Values carries the
// numeric features, cats the categorical ones; the model decides how to
// encode them.
type RankModel interface {
	Name() string
	Predict(values map[string]float64, cats map[string]string) (float64, error)
}

// ErrModelUnavailable is returned when no model artifact is loaded. The
// serving path falls back to retrieval scores on this error.
var ErrModelUnavailable = core.NewDomainError(
	core.ModuleModel, core.ErrorCodeModelUnavailable, "model: no ranking model loaded")
