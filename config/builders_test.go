package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/feature"
	"github.com/wearlane/recsys/rank"
	"github.com/wearlane/recsys/recall"
	"github.com/wearlane/recsys/store"
)

const testPipelineYAML = `pipeline:
  name: serving
  nodes:
    - type: recall.blend
      config:
        recent_days_short: 3
        recent_days_long: 7
        top_n: 100
        source_timeout_ms: 500
        weights:
          recent_short: 0.5
    - type: filter.expr
      config:
        expr: 'score >= 0.0'
    - type: rank.model
    - type: rerank.topn
      config:
        n: 5
`

func testDeps(t *testing.T) Deps {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	day := func(v string) time.Time {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	data := core.NewDataset([]core.Transaction{
		{UserID: "u1", ArticleID: "a1", Date: day("2020-09-21")},
		{UserID: "u1", ArticleID: "a2", Date: day("2020-09-20")},
		{UserID: "u2", ArticleID: "a1", Date: day("2020-09-22")},
	}, []core.Customer{
		{UserID: "u1", AgeBin: "26-35"},
		{UserID: "u2", AgeBin: "26-35"},
	}, nil)
	var ref rank.ModelRef
	return Deps{
		Data:     data,
		Store:    s,
		Models:   &ref,
		Features: feature.NewBuilder(data, s),
	}
}

func TestBuildPipelineFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(testPipelineYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := BuildPipeline(path, testDeps(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Nodes) != 4 {
		t.Fatalf("built %d nodes, want 4", len(p.Nodes))
	}

	blend, ok := p.Nodes[0].(*recall.Blender)
	if !ok {
		t.Fatalf("first node is %T, want *recall.Blender", p.Nodes[0])
	}
	if blend.TopN != 100 {
		t.Errorf("top_n override ignored: %d", blend.TopN)
	}
	if blend.SourceTimeout != 500*time.Millisecond {
		t.Errorf("source_timeout_ms override ignored: %v", blend.SourceTimeout)
	}
	if blend.Weights[recall.RuleRecentShort] != 0.5 {
		t.Errorf("weights override ignored: %v", blend.Weights)
	}
	if blend.Weights[recall.RulePopularAge] != recall.DefaultRuleWeights[recall.RulePopularAge] {
		t.Errorf("unoverridden weight changed: %v", blend.Weights)
	}

	// The assembled chain runs end to end without a model: the rank node
	// passes through and topn keeps 5.
	items, err := p.Run(context.Background(), &core.RecommendContext{UserID: "u1", K: 30}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) == 0 || len(items) > 5 {
		t.Fatalf("pipeline produced %d items, want 1..5", len(items))
	}
}

func TestBuildPipelineUnknownNode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	yaml := "pipeline:\n  name: bad\n  nodes:\n    - type: recall.nope\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := BuildPipeline(path, testDeps(t)); err == nil {
		t.Fatal("expected error for unregistered node type")
	}
}

func TestRegisteredDefaults(t *testing.T) {
	got := Registered()
	want := map[string]bool{
		"recall.blend": false, "filter.expr": false,
		"rank.model": false, "rerank.topn": false,
	}
	for _, name := range got {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("default builder %s not registered", name)
		}
	}
}
