// Package training builds labeled training tables from candidates and
// features: temporal windowing, labeling, negative downsampling and the
// train/validation split.
package training

import (
	"time"

	"github.com/wearlane/recsys/core"
)

// Windows defines the temporal layout of a training run. The target period is
// strictly after the train window so labels never leak into features.
type Windows struct {
	TrainStart  time.Time `json:"train_window_start"`
	TrainEnd    time.Time `json:"train_window_end"`
	TargetStart time.Time `json:"target_start"`
	TargetEnd   time.Time `json:"target_end"`
}

// DefaultWindows derives the standard layout from the dataset's last
// transaction date: the target period is the final 7 days (last date minus 6
// through last date) and the train window is the 28 days before it.
func DefaultWindows(data *core.Dataset) Windows {
	last := data.MaxDate()
	return Windows{
		TargetEnd:   last,
		TargetStart: last.AddDate(0, 0, -6),
		TrainEnd:    last.AddDate(0, 0, -7),
		TrainStart:  last.AddDate(0, 0, -35),
	}
}
