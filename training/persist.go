package training

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/feature"
)

// SaveTable writes a feature table as JSON.
func SaveTable(path string, table *feature.Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

// LoadTable reads a feature table written by SaveTable. A missing file is
// reported as a dataset DATA_UNAVAILABLE error naming the upstream step that
// produces it.
func LoadTable(path string) (*feature.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataUnavailable,
				fmt.Sprintf("training table %s not found; run the trainset step first", path))
		}
		return nil, fmt.Errorf("read table: %w", err)
	}
	var table feature.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("unmarshal table: %w", err)
	}
	return &table, nil
}
