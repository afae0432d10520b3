package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wearlane/recsys/core"
)

// Metadata is written next to the model artifact so a deployment can be
// inspected without loading the trees.
type Metadata struct {
	ModelName     string                `json:"model_name"`
	TrainedAt     time.Time             `json:"trained_at"`
	BestIteration int                   `json:"best_iteration"`
	TrainAUC      float64               `json:"train_auc"`
	ValAUC        float64               `json:"val_auc"`
	Features      []string              `json:"features"`
	CatFeatures   []string              `json:"cat_features"`
	Params        Params                `json:"params"`
	Importance    map[string]float64    `json:"feature_importance"`
	Ranking       map[int]RankingMetric `json:"ranking_metrics,omitempty"`
}

// Save writes the model artifact as JSON.
func Save(path string, m *GBDT) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads a model artifact written by Save. A missing file is reported as
// MODEL_UNAVAILABLE so the serving path can fall back to retrieval scores.
func Load(path string) (*GBDT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelUnavailable,
				fmt.Sprintf("model artifact %s not found; run the train step first", path))
		}
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m GBDT
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	if len(m.Trees) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelUnavailable,
			fmt.Sprintf("model artifact %s has no trees", path))
	}
	return &m, nil
}

// SaveMetadata writes the training metadata as indented JSON.
func SaveMetadata(path string, md Metadata) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
