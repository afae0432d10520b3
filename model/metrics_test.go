package model

import (
	"math"
	"testing"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name   string
		y      []float64
		scores []float64
		want   float64
	}{
		{
			name:   "perfect separation",
			y:      []float64{0, 0, 1, 1},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "inverted",
			y:      []float64{1, 1, 0, 0},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   0.0,
		},
		{
			name:   "single class",
			y:      []float64{1, 1, 1},
			scores: []float64{0.1, 0.5, 0.9},
			want:   0.5,
		},
		{
			name:   "all scores tied",
			y:      []float64{0, 1, 0, 1},
			scores: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:   "one misranked pair",
			y:      []float64{0, 1, 0, 1},
			scores: []float64{0.1, 0.2, 0.3, 0.4},
			want:   0.75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AUC(tt.y, tt.scores)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AUC = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestROCCurve(t *testing.T) {
	y := []float64{0, 0, 1, 1}
	scores := []float64{0.1, 0.2, 0.8, 0.9}

	pts := ROCCurve(y, scores)
	if len(pts) != 5 {
		t.Fatalf("got %d points, want 5 (origin + 4 thresholds)", len(pts))
	}
	if pts[0].FPR != 0 || pts[0].TPR != 0 {
		t.Errorf("curve must start at the origin, got %+v", pts[0])
	}
	last := pts[len(pts)-1]
	if last.FPR != 1 || last.TPR != 1 {
		t.Errorf("curve must end at (1,1), got %+v", last)
	}
	// Perfect separation: all positives before any negative.
	if pts[2].TPR != 1.0 || pts[2].FPR != 0.0 {
		t.Errorf("after both positives: %+v, want TPR 1 FPR 0", pts[2])
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].TPR < pts[i-1].TPR || pts[i].FPR < pts[i-1].FPR {
			t.Fatal("ROC points not monotonic")
		}
	}

	if got := ROCCurve([]float64{1, 1}, []float64{0.2, 0.8}); got != nil {
		t.Errorf("single-class curve should be nil, got %v", got)
	}
}

func TestEvalRankingFirstHit(t *testing.T) {
	// One positive ranked first: AP@K = 1.0 for every K.
	preds := []Prediction{
		{UserID: "u1", ArticleID: "a1", Label: 1, Score: 0.9},
		{UserID: "u1", ArticleID: "a2", Label: 0, Score: 0.5},
		{UserID: "u1", ArticleID: "a3", Label: 0, Score: 0.1},
	}
	got := EvalRanking(preds, []int{10})
	if got[10].MAP != 1.0 {
		t.Errorf("MAP@10 = %v, want 1.0", got[10].MAP)
	}
	if got[10].Recall != 1.0 {
		t.Errorf("Recall@10 = %v, want 1.0", got[10].Recall)
	}
	if got[10].Users != 1 {
		t.Errorf("users = %d, want 1", got[10].Users)
	}
}

func TestEvalRankingLastHit(t *testing.T) {
	// One positive ranked last among K: AP@K = (1/K) / min(K, 1) = 1/K.
	preds := make([]Prediction, 0, 10)
	for i := 0; i < 9; i++ {
		preds = append(preds, Prediction{
			UserID: "u1", ArticleID: string(rune('b' + i)), Label: 0, Score: float64(10 - i),
		})
	}
	preds = append(preds, Prediction{UserID: "u1", ArticleID: "a", Label: 1, Score: 0.1})

	got := EvalRanking(preds, []int{10})
	want := 1.0 / 10.0
	if math.Abs(got[10].MAP-want) > 1e-9 {
		t.Errorf("MAP@10 = %v, want %v", got[10].MAP, want)
	}
}

func TestEvalRankingExcludesZeroPositiveUsers(t *testing.T) {
	preds := []Prediction{
		{UserID: "u1", ArticleID: "a1", Label: 1, Score: 0.9},
		{UserID: "u1", ArticleID: "a2", Label: 0, Score: 0.1},
		{UserID: "u2", ArticleID: "a1", Label: 0, Score: 0.9},
		{UserID: "u2", ArticleID: "a2", Label: 0, Score: 0.1},
	}
	got := EvalRanking(preds, []int{10})
	if got[10].Users != 1 {
		t.Errorf("users = %d, want 1 (zero-positive user excluded)", got[10].Users)
	}
	if got[10].MAP != 1.0 {
		t.Errorf("MAP@10 = %v, want 1.0 (u2 must not drag the mean down)", got[10].MAP)
	}
}

func TestEvalRankingFewerPositivesThanK(t *testing.T) {
	// Two positives ranked 1st and 2nd with K=10: AP normalizes by
	// min(K, positives) = 2, so the score is perfect.
	preds := []Prediction{
		{UserID: "u1", ArticleID: "a1", Label: 1, Score: 0.9},
		{UserID: "u1", ArticleID: "a2", Label: 1, Score: 0.8},
		{UserID: "u1", ArticleID: "a3", Label: 0, Score: 0.1},
	}
	got := EvalRanking(preds, []int{10})
	if got[10].MAP != 1.0 {
		t.Errorf("MAP@10 = %v, want 1.0", got[10].MAP)
	}
}
