package rank

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/feature"
	"github.com/wearlane/recsys/model"
)

func trainedModel(t *testing.T) *model.GBDT {
	t.Helper()
	schema := feature.Schema{{Name: "x", Kind: feature.Numeric}}
	table := &feature.Table{Schema: schema}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		x := rng.Float64()
		label := 0
		if x > 0.5 {
			label = 1
		}
		table.Rows = append(table.Rows, feature.Row{
			UserID: "u", ArticleID: "a", Label: label,
			Values: map[string]float64{"x": x},
		})
	}
	p := model.Params{LearningRate: 0.1, NumLeaves: 4, MaxDepth: 3, MinChildSamples: 5, Subsample: 1, ColsampleByTree: 1}
	m, _, err := model.Train(table, nil, p, 10, 0, rng)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestModelRefEmpty(t *testing.T) {
	var ref ModelRef
	if _, err := ref.Get(); !core.IsModelUnavailable(err) {
		t.Fatalf("empty ref should report MODEL_UNAVAILABLE, got %v", err)
	}
	if ref.Mode() != "retrieval" {
		t.Errorf("empty ref mode = %q, want retrieval", ref.Mode())
	}
}

func TestModelRefLoadMissingArtifact(t *testing.T) {
	ref, err := NewModelRef(filepath.Join(t.TempDir(), "missing.json"))
	if !core.IsModelUnavailable(err) {
		t.Fatalf("missing artifact should report MODEL_UNAVAILABLE, got %v", err)
	}
	if ref.Mode() != "retrieval" {
		t.Errorf("failed load should leave ref in retrieval mode, got %q", ref.Mode())
	}
}

func TestModelRefReloadSwap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ranker.json")

	m1 := trainedModel(t)
	if err := model.Save(path, m1); err != nil {
		t.Fatal(err)
	}

	ref, err := NewModelRef(path)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Mode() != "model" {
		t.Fatalf("loaded ref mode = %q, want model", ref.Mode())
	}
	first, err := ref.Get()
	if err != nil {
		t.Fatal(err)
	}

	// Overwrite the artifact and reload; the ref must serve the new trees.
	m2 := trainedModel(t)
	m2.BestIteration = 1
	if err := model.Save(path, m2); err != nil {
		t.Fatal(err)
	}
	if err := ref.Reload(); err != nil {
		t.Fatal(err)
	}
	second, err := ref.Get()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("reload did not swap the model pointer")
	}
	if second.BestIteration != 1 {
		t.Errorf("reloaded model best iteration = %d, want 1", second.BestIteration)
	}
}

func TestModelRefReloadFailureKeepsCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ranker.json")
	if err := model.Save(path, trainedModel(t)); err != nil {
		t.Fatal(err)
	}
	ref, err := NewModelRef(path)
	if err != nil {
		t.Fatal(err)
	}

	// Corrupt the artifact; reload must fail but keep serving.
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ref.Reload(); err == nil {
		t.Fatal("reload of corrupt artifact should error")
	}
	if _, err := ref.Get(); err != nil {
		t.Fatalf("previous model should keep serving after failed reload, got %v", err)
	}
}
