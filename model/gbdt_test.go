package model

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/feature"
)

var testSchema = feature.Schema{
	{Name: "x", Kind: feature.Numeric, Fill: 0},
	{Name: "noise", Kind: feature.Numeric, Fill: 0},
	{Name: "color", Kind: feature.Categorical, FillCat: "unknown"},
}

// syntheticTable builds a separable problem: label follows x > 0.5, with a
// categorical backup signal and a useless noise column.
func syntheticTable(n int, rng *rand.Rand) *feature.Table {
	table := &feature.Table{Schema: testSchema}
	for i := 0; i < n; i++ {
		x := rng.Float64()
		label := 0
		color := "blue"
		if x > 0.5 {
			label = 1
			color = "red"
		}
		table.Rows = append(table.Rows, feature.Row{
			UserID:    "u1",
			ArticleID: "a",
			Label:     label,
			Values:    map[string]float64{"x": x, "noise": rng.Float64()},
			Cats:      map[string]string{"color": color},
		})
	}
	return table
}

func smallParams() Params {
	return Params{
		LearningRate:    0.1,
		NumLeaves:       4,
		MaxDepth:        3,
		MinChildSamples: 5,
		Subsample:       1.0,
		ColsampleByTree: 1.0,
		Lambda:          0.0,
	}
}

func TestTrainSeparableData(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	train := syntheticTable(400, rng)
	val := syntheticTable(100, rng)

	m, res, err := Train(train, val, smallParams(), 50, 10, rng)
	if err != nil {
		t.Fatal(err)
	}
	if res.TrainAUC < 0.95 {
		t.Errorf("train AUC = %v, want >= 0.95 on separable data", res.TrainAUC)
	}
	if res.BestValAUC < 0.95 {
		t.Errorf("val AUC = %v, want >= 0.95 on separable data", res.BestValAUC)
	}
	if res.BestIteration < 1 || res.BestIteration > len(m.Trees) {
		t.Errorf("best iteration %d out of range [1, %d]", res.BestIteration, len(m.Trees))
	}

	high, err := m.Predict(map[string]float64{"x": 0.95, "noise": 0.5}, map[string]string{"color": "red"})
	if err != nil {
		t.Fatal(err)
	}
	low, err := m.Predict(map[string]float64{"x": 0.05, "noise": 0.5}, map[string]string{"color": "blue"})
	if err != nil {
		t.Fatal(err)
	}
	if high <= low {
		t.Errorf("positive-region prediction %v not above negative-region %v", high, low)
	}
	if high < 0 || high > 1 || low < 0 || low > 1 {
		t.Errorf("predictions outside [0,1]: %v, %v", high, low)
	}
}

func TestTrainFeatureImportance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	train := syntheticTable(400, rng)
	val := syntheticTable(100, rng)

	_, res, err := Train(train, val, smallParams(), 30, 0, rng)
	if err != nil {
		t.Fatal(err)
	}
	// The signal column must dominate the noise column.
	signal := res.Importance["x"] + res.Importance["color"]
	if signal <= res.Importance["noise"] {
		t.Errorf("signal importance %v not above noise %v", signal, res.Importance["noise"])
	}
}

func TestPredictUnseenCategory(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	train := syntheticTable(200, rng)
	val := syntheticTable(50, rng)

	m, _, err := Train(train, val, smallParams(), 20, 0, rng)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Predict(map[string]float64{"x": 0.9, "noise": 0.1}, map[string]string{"color": "chartreuse"})
	if err != nil {
		t.Fatalf("unseen category must not error: %v", err)
	}
	if got < 0 || got > 1 {
		t.Errorf("prediction %v outside [0,1]", got)
	}
}

func TestTrainEmptyTable(t *testing.T) {
	_, _, err := Train(&feature.Table{Schema: testSchema}, nil, smallParams(), 10, 0, rand.New(rand.NewSource(1)))
	if err == nil {
		t.Fatal("empty training table must error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	train := syntheticTable(200, rng)
	val := syntheticTable(50, rng)

	m, _, err := Train(train, val, smallParams(), 20, 5, rng)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "ranker.json")
	if err := Save(path, m); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	values := map[string]float64{"x": 0.7, "noise": 0.3}
	cats := map[string]string{"color": "red"}
	want, err := m.Predict(values, cats)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.Predict(values, cats)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("loaded model predicts %v, original %v", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("missing artifact must error")
	}
	if !core.IsModelUnavailable(err) {
		t.Fatalf("want MODEL_UNAVAILABLE domain error, got %v", err)
	}
}
