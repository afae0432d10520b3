package training

import (
	"encoding/json"
	"os"
	"time"

	"github.com/wearlane/recsys/feature"
)

// Stats summarizes one training-data build, written next to the tables so
// runs can be compared without reloading them.
type Stats struct {
	Windows       Windows   `json:"windows"`
	TotalRows     int       `json:"total_rows"`
	Positives     int       `json:"positives"`
	Negatives     int       `json:"negatives"`
	NegPosRatio   float64   `json:"neg_pos_ratio"`
	Users         int       `json:"users"`
	TrainRows     int       `json:"train_rows"`
	TrainPos      int       `json:"train_positives"`
	ValRows       int       `json:"val_rows"`
	ValPos        int       `json:"val_positives"`
	GeneratedAt   time.Time `json:"generated_at"`
	NegPosTarget  float64   `json:"neg_pos_target"`
	ValFraction   float64   `json:"val_fraction"`
	FeatureNames  []string  `json:"feature_names"`
	RandomSeed    int64     `json:"random_seed"`
	SourceMaxDate time.Time `json:"source_max_date"`
}

// CollectStats computes the summary for the final train/val tables.
func CollectStats(train, val []feature.Row, w Windows) Stats {
	s := Stats{Windows: w, GeneratedAt: time.Now().UTC()}
	users := make(map[string]struct{})
	count := func(rows []feature.Row, pos *int) {
		for _, r := range rows {
			if r.Label == 1 {
				*pos++
			}
			users[r.UserID] = struct{}{}
		}
	}
	count(train, &s.TrainPos)
	count(val, &s.ValPos)
	s.TrainRows = len(train)
	s.ValRows = len(val)
	s.TotalRows = s.TrainRows + s.ValRows
	s.Positives = s.TrainPos + s.ValPos
	s.Negatives = s.TotalRows - s.Positives
	if s.Positives > 0 {
		s.NegPosRatio = float64(s.Negatives) / float64(s.Positives)
	}
	s.Users = len(users)
	return s
}

// Save writes the stats as indented JSON.
func (s Stats) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
