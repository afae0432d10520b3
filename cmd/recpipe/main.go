// Command recpipe runs the offline recommendation pipeline: candidate
// generation, feature building, training-set assembly and model training.
//
// Usage:
//
//	recpipe candidates --user <id> [--out dir]
//	recpipe features --user <id> [--out dir]
//	recpipe trainset [--sample-users n] [--neg-pos-ratio r] [--val-fraction f] [--as-of date]
//	recpipe train [--rounds n] [--early-stop n]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wearlane/recsys/core"
	"github.com/wearlane/recsys/dataset"
	"github.com/wearlane/recsys/feature"
	"github.com/wearlane/recsys/model"
	"github.com/wearlane/recsys/pkg/config"
	"github.com/wearlane/recsys/recall"
	"github.com/wearlane/recsys/store"
	"github.com/wearlane/recsys/training"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: recpipe <candidates|features|trainset|train> [flags]")
		os.Exit(2)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	app := &app{cfg: cfg, log: log}

	var runErr error
	switch os.Args[1] {
	case "candidates":
		runErr = app.candidates(os.Args[2:])
	case "features":
		runErr = app.features(os.Args[2:])
	case "trainset":
		runErr = app.trainset(os.Args[2:])
	case "train":
		runErr = app.train(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
	if runErr != nil {
		log.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(runErr))
	}
}

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func (a *app) loadData() (*core.Dataset, error) {
	a.log.Info("loading dataset", zap.String("dir", a.cfg.Data.Dir))
	data, err := dataset.Load(a.cfg.Data.Dir)
	if err != nil {
		return nil, err
	}
	a.log.Info("dataset loaded",
		zap.Int("transactions", data.Len()),
		zap.Time("max_date", data.MaxDate()))
	return data, nil
}

func (a *app) newBlender(data *core.Dataset, cache core.Store) *recall.Blender {
	return recall.NewBlender(
		recall.NewRecentSource(data, 3, recall.RuleRecentShort),
		recall.NewRecentSource(data, 7, recall.RuleRecentLong),
		recall.NewPopularByAgeSource(data, cache),
		recall.NewBoughtTogetherSource(data),
	)
}

// candidates generates and writes the blended candidate list for one user.
func (a *app) candidates(args []string) error {
	fs := flag.NewFlagSet("candidates", flag.ExitOnError)
	userID := fs.String("user", "", "user to generate candidates for")
	out := fs.String("out", "artifacts", "output directory")
	fs.Parse(args)
	if *userID == "" {
		return fmt.Errorf("--user is required")
	}

	data, err := a.loadData()
	if err != nil {
		return err
	}
	cache := store.NewMemoryStore()
	defer cache.Close()

	blender := a.newBlender(data, cache)
	items, err := blender.GetCandidates(context.Background(), &core.RecommendContext{UserID: *userID})
	if err != nil {
		return err
	}
	a.log.Info("candidates generated", zap.String("user_id", *userID), zap.Int("count", len(items)))

	return writeJSON(filepath.Join(*out, fmt.Sprintf("candidates_%s.json", *userID)), candidateRows(items))
}

// features builds the feature table for one user's candidates.
func (a *app) features(args []string) error {
	fs := flag.NewFlagSet("features", flag.ExitOnError)
	userID := fs.String("user", "", "user to build features for")
	out := fs.String("out", "artifacts", "output directory")
	fs.Parse(args)
	if *userID == "" {
		return fmt.Errorf("--user is required")
	}

	data, err := a.loadData()
	if err != nil {
		return err
	}
	cache := store.NewMemoryStore()
	defer cache.Close()

	blender := a.newBlender(data, cache)
	ctx := context.Background()
	items, err := blender.GetCandidates(ctx, &core.RecommendContext{UserID: *userID})
	if err != nil {
		return err
	}

	builder := feature.NewBuilder(data, cache)
	table, err := builder.Build(ctx, *userID, items)
	if err != nil {
		return err
	}
	a.log.Info("features built", zap.String("user_id", *userID), zap.Int("rows", len(table.Rows)))

	return training.SaveTable(filepath.Join(*out, fmt.Sprintf("features_%s.json", *userID)), table)
}

// trainset assembles the labeled train/validation tables: candidates and
// features per sampled user, temporal labels, negative downsampling and the
// stratified split.
func (a *app) trainset(args []string) error {
	fs := flag.NewFlagSet("trainset", flag.ExitOnError)
	sampleUsers := fs.Int("sample-users", 1000, "number of active users to sample")
	negPosRatio := fs.Float64("neg-pos-ratio", 4.0, "negatives per positive after sampling")
	valFraction := fs.Float64("val-fraction", 0.1, "validation split fraction")
	seed := fs.Int64("seed", 42, "random seed")
	asOf := fs.String("as-of", "", "feature cutoff date YYYY-MM-DD (default: train window end)")
	out := fs.String("out", "artifacts", "output directory")
	fs.Parse(args)

	data, err := a.loadData()
	if err != nil {
		return err
	}
	cache := store.NewMemoryStore()
	defer cache.Close()

	rng := rand.New(rand.NewSource(*seed))
	windows := training.DefaultWindows(data)
	a.log.Info("training windows",
		zap.Time("train_start", windows.TrainStart),
		zap.Time("train_end", windows.TrainEnd),
		zap.Time("target_start", windows.TargetStart),
		zap.Time("target_end", windows.TargetEnd))

	// Candidates and features are computed on a snapshot truncated to the
	// cutoff, so no aggregate sees the label window.
	cutoff := windows.TrainEnd
	if *asOf != "" {
		cutoff, err = time.Parse("2006-01-02", *asOf)
		if err != nil {
			return fmt.Errorf("parse --as-of: %w", err)
		}
	}
	featData := data.AsOf(cutoff)
	a.log.Info("feature snapshot truncated",
		zap.Time("cutoff", cutoff),
		zap.Int("transactions", featData.Len()))

	users := featData.ActiveUsers()
	sort.Strings(users)
	rng.Shuffle(len(users), func(i, j int) { users[i], users[j] = users[j], users[i] })
	if len(users) > *sampleUsers {
		users = users[:*sampleUsers]
	}

	blender := a.newBlender(featData, cache)
	builder := feature.NewBuilder(featData, cache)
	ctx := context.Background()

	var rows []feature.Row
	for _, userID := range users {
		items, err := blender.GetCandidates(ctx, &core.RecommendContext{UserID: userID})
		if err != nil {
			return fmt.Errorf("candidates for %s: %w", userID, err)
		}
		if len(items) == 0 {
			continue
		}
		table, err := builder.Build(ctx, userID, items)
		if err != nil {
			return fmt.Errorf("features for %s: %w", userID, err)
		}
		rows = append(rows, table.Rows...)
	}
	a.log.Info("feature rows built", zap.Int("rows", len(rows)), zap.Int("users", len(users)))

	training.Label(rows, data, windows)
	sampled := training.SampleNegatives(rows, *negPosRatio, rng)
	trainRows, valRows := training.Split(sampled, *valFraction, rng)

	stats := training.CollectStats(trainRows, valRows, windows)
	stats.NegPosTarget = *negPosRatio
	stats.ValFraction = *valFraction
	stats.RandomSeed = *seed
	stats.SourceMaxDate = data.MaxDate()
	stats.FeatureNames = feature.DefaultSchema.Names()
	a.log.Info("training data assembled",
		zap.Int("train_rows", stats.TrainRows),
		zap.Int("val_rows", stats.ValRows),
		zap.Int("positives", stats.Positives),
		zap.Float64("neg_pos_ratio", stats.NegPosRatio))

	if err := training.SaveTable(filepath.Join(*out, "train.json"),
		&feature.Table{Schema: feature.DefaultSchema, Rows: trainRows}); err != nil {
		return err
	}
	if err := training.SaveTable(filepath.Join(*out, "val.json"),
		&feature.Table{Schema: feature.DefaultSchema, Rows: valRows}); err != nil {
		return err
	}
	return stats.Save(filepath.Join(*out, "trainset_stats.json"))
}

// train fits the ranking model on the assembled tables and writes the
// artifact, metadata and ranking metrics.
func (a *app) train(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	rounds := fs.Int("rounds", 2000, "maximum boosting rounds")
	earlyStop := fs.Int("early-stop", 50, "early stopping patience")
	seed := fs.Int64("seed", 42, "random seed")
	in := fs.String("in", "artifacts", "directory with train.json and val.json")
	fs.Parse(args)

	trainTable, err := training.LoadTable(filepath.Join(*in, "train.json"))
	if err != nil {
		return err
	}
	valTable, err := training.LoadTable(filepath.Join(*in, "val.json"))
	if err != nil {
		return err
	}
	a.log.Info("training tables loaded",
		zap.Int("train_rows", len(trainTable.Rows)),
		zap.Int("val_rows", len(valTable.Rows)))

	rng := rand.New(rand.NewSource(*seed))
	m, res, err := model.Train(trainTable, valTable, model.DefaultParams, *rounds, *earlyStop, rng)
	if err != nil {
		return err
	}
	a.log.Info("model trained",
		zap.Int("rounds", res.Rounds),
		zap.Int("best_iteration", res.BestIteration),
		zap.Float64("train_auc", res.TrainAUC),
		zap.Float64("val_auc", res.BestValAUC))

	preds := make([]model.Prediction, len(valTable.Rows))
	for i := range valTable.Rows {
		row := &valTable.Rows[i]
		score, err := m.Predict(row.Values, row.Cats)
		if err != nil {
			return err
		}
		preds[i] = model.Prediction{
			UserID:    row.UserID,
			ArticleID: row.ArticleID,
			Label:     row.Label,
			Score:     score,
		}
	}
	ranking := model.EvalRanking(preds, []int{10, 20, 30})
	for _, k := range []int{10, 20, 30} {
		a.log.Info("ranking metrics",
			zap.Int("k", k),
			zap.Float64("map", ranking[k].MAP),
			zap.Float64("recall", ranking[k].Recall),
			zap.Int("users", ranking[k].Users))
	}

	valY := make([]float64, len(valTable.Rows))
	valScores := make([]float64, len(valTable.Rows))
	for i := range valTable.Rows {
		valY[i] = float64(valTable.Rows[i].Label)
		valScores[i] = preds[i].Score
	}
	if err := writeJSON(filepath.Join(*in, "roc_curve.json"), model.ROCCurve(valY, valScores)); err != nil {
		return err
	}

	if err := model.Save(a.cfg.Model.Path, m); err != nil {
		return err
	}
	md := model.Metadata{
		ModelName:     m.Name(),
		TrainedAt:     time.Now().UTC(),
		BestIteration: res.BestIteration,
		TrainAUC:      res.TrainAUC,
		ValAUC:        res.BestValAUC,
		Features:      m.Features,
		CatFeatures:   m.CatFeatures,
		Params:        m.Params,
		Importance:    res.Importance,
		Ranking:       ranking,
	}
	return model.SaveMetadata(metadataPath(a.cfg.Model.Path), md)
}

func metadataPath(modelPath string) string {
	ext := filepath.Ext(modelPath)
	return modelPath[:len(modelPath)-len(ext)] + "_metadata.json"
}

func candidateRows(items []*core.Item) []store.CandidateRow {
	rows := make([]store.CandidateRow, len(items))
	for i, it := range items {
		rows[i] = store.CandidateRow{
			ArticleID:  it.ID,
			Score:      it.Score,
			Reason:     it.Reason,
			RuleScores: it.RuleScores,
		}
	}
	return rows
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
