package model

import "sort"

// AUC computes the area under the ROC curve from labels and raw scores, with
// average ranks for tied scores. Returns 0.5 when either class is absent.
func AUC(y, scores []float64) float64 {
	n := len(y)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	var nPos, nNeg float64
	for _, v := range y {
		if v == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}

	// Sum positive ranks, averaging ranks within tied groups.
	var rankSum float64
	i := 0
	for i < n {
		j := i
		for j+1 < n && scores[idx[j+1]] == scores[idx[i]] {
			j++
		}
		avgRank := float64(i+j)/2.0 + 1.0
		for k := i; k <= j; k++ {
			if y[idx[k]] == 1 {
				rankSum += avgRank
			}
		}
		i = j + 1
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// ROCPoint is one (FPR, TPR) point at a score threshold.
type ROCPoint struct {
	FPR       float64 `json:"fpr"`
	TPR       float64 `json:"tpr"`
	Threshold float64 `json:"threshold"`
}

// ROCCurve computes the ROC curve points from labels and raw scores, one
// point per distinct threshold, descending. Both classes must be present or
// the curve is nil.
func ROCCurve(y, scores []float64) []ROCPoint {
	n := len(y)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	var nPos, nNeg float64
	for _, v := range y {
		if v == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return nil
	}

	points := []ROCPoint{{FPR: 0, TPR: 0, Threshold: scores[idx[0]]}}
	var tp, fp float64
	i := 0
	for i < n {
		j := i
		for j+1 < n && scores[idx[j+1]] == scores[idx[i]] {
			j++
		}
		for k := i; k <= j; k++ {
			if y[idx[k]] == 1 {
				tp++
			} else {
				fp++
			}
		}
		points = append(points, ROCPoint{
			FPR:       fp / nNeg,
			TPR:       tp / nPos,
			Threshold: scores[idx[i]],
		})
		i = j + 1
	}
	return points
}

// Prediction is one scored validation example, grouped by user for the
// ranking metrics.
type Prediction struct {
	UserID    string
	ArticleID string
	Label     int
	Score     float64
}

// RankingMetric is the per-K evaluation result.
type RankingMetric struct {
	MAP    float64 `json:"map"`
	Recall float64 `json:"recall"`
	Users  int     `json:"n_users"`
}

// EvalRanking computes MAP@K and Recall@K averaged over users. Users with no
// positive example are excluded; average precision normalizes by
// min(K, positives) so a user with fewer positives than K can still reach 1.
func EvalRanking(preds []Prediction, ks []int) map[int]RankingMetric {
	byUser := make(map[string][]Prediction)
	for _, p := range preds {
		byUser[p.UserID] = append(byUser[p.UserID], p)
	}

	sums := make(map[int]*RankingMetric, len(ks))
	for _, k := range ks {
		sums[k] = &RankingMetric{}
	}

	for _, userPreds := range byUser {
		var nPositives int
		for _, p := range userPreds {
			if p.Label == 1 {
				nPositives++
			}
		}
		if nPositives == 0 {
			continue
		}
		sort.Slice(userPreds, func(i, j int) bool {
			if userPreds[i].Score != userPreds[j].Score {
				return userPreds[i].Score > userPreds[j].Score
			}
			return userPreds[i].ArticleID < userPreds[j].ArticleID
		})

		for _, k := range ks {
			top := userPreds
			if len(top) > k {
				top = top[:k]
			}
			hits := 0
			sumPrecisions := 0.0
			for i, p := range top {
				if p.Label == 1 {
					hits++
					sumPrecisions += float64(hits) / float64(i+1)
				}
			}
			denom := k
			if nPositives < denom {
				denom = nPositives
			}
			m := sums[k]
			m.MAP += sumPrecisions / float64(denom)
			m.Recall += float64(hits) / float64(nPositives)
			m.Users++
		}
	}

	out := make(map[int]RankingMetric, len(ks))
	for _, k := range ks {
		m := sums[k]
		if m.Users > 0 {
			m.MAP /= float64(m.Users)
			m.Recall /= float64(m.Users)
		}
		out[k] = *m
	}
	return out
}
