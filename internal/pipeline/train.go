package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/parkinsight/internal/artifact"
	"github.com/verte-zerg/parkinsight/internal/dataset"
	"github.com/verte-zerg/parkinsight/internal/ml"
	"github.com/verte-zerg/parkinsight/internal/model"
	"github.com/verte-zerg/parkinsight/internal/report"
	"github.com/verte-zerg/parkinsight/internal/store"
)

// Dataset names recorded with every model score.
const (
	DatasetVoice   = "voice"
	DatasetSymptom = "symptom"
)

// TunedModelName labels the grid-searched forest in score listings.
const TunedModelName = "Random Forest (tuned)"

// ErrMissingValues is returned when training data still holds empty cells.
var ErrMissingValues = errors.New("dataset has missing values")

// Trainer runs every training stage and records the outcome.
type Trainer struct {
	Log *zap.SugaredLogger
	// Store is optional; when set the run is recorded there.
	Store *store.Store
	// Out receives the human-readable reports; nil discards them.
	Out   io.Writer
	Width int
	Now   func() time.Time
	NewID func() string
}

// TrainResult is everything a training run produced.
type TrainResult struct {
	Run       model.RunRecord
	Scores    []model.ModelScore
	Grid      []model.GridScore
	Artifacts artifact.Set
}

type splitData struct {
	trainX [][]float64
	trainY []int
	testX  [][]float64
	testY  []int
	scaler *ml.StandardScaler
}

// Train loads both datasets, fits and evaluates every model, tunes the voice
// forest and persists the artifacts the predict path needs.
func (t Trainer) Train(ctx context.Context, cfg model.TrainConfig) (TrainResult, error) {
	log := t.logger()
	out := t.Out
	if out == nil {
		out = io.Discard
	}
	now := t.Now
	if now == nil {
		now = time.Now
	}
	runID := uuid.NewString()
	if t.NewID != nil {
		runID = t.NewID()
	}
	log = log.With("run", runID)
	run := model.RunRecord{ID: runID, StartedAt: now().UTC()}
	log.Infow("training started", "voice", cfg.VoiceSource, "symptom", cfg.SymptomSource)

	voiceFrame, source, err := dataset.Load(ctx, cfg.VoiceSource, cfg.CacheDir)
	if err != nil {
		return TrainResult{}, fmt.Errorf("failed to load voice dataset: %w", err)
	}
	log.Infow("voice dataset loaded", "path", source.Path, "cached", source.Cached, "rows", len(voiceFrame.Rows))
	voice, err := dataset.SplitLabel(voiceFrame, cfg.Label, model.VoiceColumns)
	if err != nil {
		return TrainResult{}, fmt.Errorf("voice dataset: %w", err)
	}
	if missing := countMissing(voice.Features); missing > 0 {
		return TrainResult{}, fmt.Errorf("voice dataset: %w: %d cells", ErrMissingValues, missing)
	}
	run.VoiceRows = len(voice.Labels)

	bounds := dataset.FitOutlierBounds(voice.Features)
	run.OutliersBefore = bounds.CountOutlierRows(voice.Features)
	replaced := bounds.Apply(voice.Features)
	run.OutliersAfter = bounds.CountOutlierRows(voice.Features)
	log.Infow("outliers replaced", "rows_before", run.OutliersBefore, "rows_after", run.OutliersAfter, "cells", replaced)
	if err := report.RenderOutliers(out, run.OutliersBefore, run.OutliersAfter); err != nil {
		return TrainResult{}, err
	}

	voiceData, err := prepare(voice, cfg.TestSize, cfg.Seed)
	if err != nil {
		return TrainResult{}, fmt.Errorf("voice dataset: %w", err)
	}
	log.Infow("voice split", "train", len(voiceData.trainY), "test", len(voiceData.testY))

	var scores []model.ModelScore
	for _, clf := range voiceModels(cfg) {
		if err := ctx.Err(); err != nil {
			return TrainResult{}, err
		}
		score, err := t.fitAndEvaluate(log, out, clf, voiceData)
		if err != nil {
			return TrainResult{}, err
		}
		scores = append(scores, score)
	}
	if err := report.RenderAccuracyComparison(out, scores, t.Width); err != nil {
		return TrainResult{}, err
	}

	tuned, grid, err := t.tune(ctx, log, cfg, voiceData)
	if err != nil {
		return TrainResult{}, err
	}
	tunedReport, err := ml.Evaluate(tuned, voiceData.testX, voiceData.testY)
	if err != nil {
		return TrainResult{}, err
	}
	run.BestParams = tuned.Params.String()
	scores = append(scores, scoreFrom(DatasetVoice, TunedModelName, tunedReport))
	log.Infow("tuned forest evaluated", "params", run.BestParams, "accuracy", tunedReport.Accuracy)
	if err := report.RenderGridSearch(out, grid, 5, t.Width, 0); err != nil {
		return TrainResult{}, err
	}
	if _, err := fmt.Fprintf(out, "Best Random Forest accuracy after tuning: %.2f%%\n\n", tunedReport.Accuracy*100); err != nil {
		return TrainResult{}, err
	}

	symptomFrame, source, err := dataset.Load(ctx, cfg.SymptomSource, cfg.CacheDir)
	if err != nil {
		return TrainResult{}, fmt.Errorf("failed to load symptom dataset: %w", err)
	}
	log.Infow("symptom dataset loaded", "path", source.Path, "cached", source.Cached, "rows", len(symptomFrame.Rows))
	symptom, err := dataset.SplitLabel(symptomFrame, cfg.Label, cfg.SymptomColumns)
	if err != nil {
		return TrainResult{}, fmt.Errorf("symptom dataset: %w", err)
	}
	if missing := countMissing(symptom.Features); missing > 0 {
		return TrainResult{}, fmt.Errorf("symptom dataset: %w: %d cells", ErrMissingValues, missing)
	}
	run.SymptomRows = len(symptom.Labels)
	symptomData, err := prepare(symptom, cfg.TestSize, cfg.Seed)
	if err != nil {
		return TrainResult{}, fmt.Errorf("symptom dataset: %w", err)
	}
	symptomModel := ml.NewRandomForest(forestParams(cfg))
	symptomModel.Workers = cfg.Workers
	if err := symptomModel.FitContext(ctx, symptomData.trainX, symptomData.trainY); err != nil {
		return TrainResult{}, fmt.Errorf("fit symptom forest: %w", err)
	}
	symptomReport, err := ml.Evaluate(symptomModel, symptomData.testX, symptomData.testY)
	if err != nil {
		return TrainResult{}, err
	}
	scores = append(scores, scoreFrom(DatasetSymptom, ml.DisplayName(ml.KindForest), symptomReport))
	log.Infow("symptom forest evaluated", "accuracy", symptomReport.Accuracy)
	if _, err := fmt.Fprintf(out, "Symptom model accuracy: %.2f%%\n\n", symptomReport.Accuracy*100); err != nil {
		return TrainResult{}, err
	}

	set := artifact.Set{
		RunID:          runID,
		VoiceColumns:   model.VoiceColumns,
		VoiceScaler:    voiceData.scaler,
		VoiceModel:     tuned,
		SymptomColumns: cfg.SymptomColumns,
		SymptomScaler:  symptomData.scaler,
		SymptomModel:   symptomModel,
	}
	set.Dir = filepath.Join(cfg.ArtifactsRoot, runID)
	if err := set.Save(set.Dir); err != nil {
		return TrainResult{}, fmt.Errorf("failed to save artifacts: %w", err)
	}
	run.ArtifactsDir = set.Dir
	run.EndedAt = now().UTC()
	log.Infow("artifacts saved", "dir", set.Dir)

	if t.Store != nil {
		if err := t.Store.InsertRun(ctx, run, scores, grid); err != nil {
			return TrainResult{}, fmt.Errorf("failed to record run: %w", err)
		}
	}
	log.Infow("training finished", "elapsed", run.EndedAt.Sub(run.StartedAt))
	return TrainResult{Run: run, Scores: scores, Grid: grid, Artifacts: set}, nil
}

func (t Trainer) logger() *zap.SugaredLogger {
	if t.Log == nil {
		return zap.NewNop().Sugar()
	}
	return t.Log
}

func (t Trainer) fitAndEvaluate(log *zap.SugaredLogger, out io.Writer, clf ml.Classifier, data splitData) (model.ModelScore, error) {
	name := ml.DisplayName(clf.Kind())
	started := time.Now()
	if err := clf.Fit(data.trainX, data.trainY); err != nil {
		if !errors.Is(err, ml.ErrNotConverged) {
			return model.ModelScore{}, fmt.Errorf("fit %s: %w", name, err)
		}
		log.Warnw("model did not converge; using last iterate", "model", name, "error", err)
	}
	rep, err := ml.Evaluate(clf, data.testX, data.testY)
	if err != nil {
		return model.ModelScore{}, err
	}
	log.Infow("model evaluated", "model", name, "accuracy", rep.Accuracy, "elapsed", time.Since(started))
	if err := report.RenderClassificationReport(out, name+" classification report", rep); err != nil {
		return model.ModelScore{}, err
	}
	if err := report.RenderConfusion(out, rep.Confusion); err != nil {
		return model.ModelScore{}, err
	}
	if _, err := fmt.Fprintf(out, "%s accuracy: %.2f%%\n\n", name, rep.Accuracy*100); err != nil {
		return model.ModelScore{}, err
	}
	return scoreFrom(DatasetVoice, name, rep), nil
}

func (t Trainer) tune(ctx context.Context, log *zap.SugaredLogger, cfg model.TrainConfig, data splitData) (*ml.RandomForest, []model.GridScore, error) {
	search := ml.GridSearch{
		Grid:    forestGrid(cfg),
		Folds:   cfg.Folds,
		Workers: cfg.Workers,
		Seed:    cfg.Seed,
		Progress: func(done, total int) {
			log.Debugw("grid search progress", "done", done, "total", total)
		},
	}
	started := time.Now()
	result, err := search.Run(ctx, data.trainX, data.trainY)
	if err != nil {
		return nil, nil, err
	}
	best := result.BestScore()
	log.Infow("grid search finished",
		"candidates", len(result.Scores),
		"best", best.Params.String(),
		"cv_accuracy", best.Mean,
		"elapsed", time.Since(started),
	)
	return result.Best, GridScores(result), nil
}

// GridScores flattens a search result for storage and reporting.
func GridScores(result ml.SearchResult) []model.GridScore {
	out := make([]model.GridScore, len(result.Scores))
	for i, s := range result.Scores {
		out[i] = model.GridScore{Index: i, Params: s.Params.String(), Mean: s.Mean, Std: s.Std}
	}
	return out
}

func prepare(l dataset.Labeled, testSize float64, seed int64) (splitData, error) {
	split, err := dataset.StratifiedSplit(l.Labels, testSize, seed)
	if err != nil {
		return splitData{}, err
	}
	train := l.Take(split.Train)
	test := l.Take(split.Test)
	scaler := &ml.StandardScaler{}
	trainX, err := scaler.FitTransform(train.Features.Rows)
	if err != nil {
		return splitData{}, err
	}
	testX, err := scaler.Transform(test.Features.Rows)
	if err != nil {
		return splitData{}, err
	}
	return splitData{
		trainX: trainX,
		trainY: train.Labels,
		testX:  testX,
		testY:  test.Labels,
		scaler: scaler,
	}, nil
}

func voiceModels(cfg model.TrainConfig) []ml.Classifier {
	forest := ml.NewRandomForest(forestParams(cfg))
	forest.Workers = cfg.Workers
	return []ml.Classifier{
		ml.NewLinearSVC(1),
		forest,
		ml.NewLogisticRegression(),
		ml.NewGradientBoosting(ml.DefaultBoostParams()),
	}
}

func forestParams(cfg model.TrainConfig) ml.ForestParams {
	params := ml.DefaultForestParams(cfg.Seed)
	if cfg.Trees > 0 {
		params.Trees = cfg.Trees
	}
	return params
}

func forestGrid(cfg model.TrainConfig) ml.ForestGrid {
	grid := ml.DefaultForestGrid()
	if len(cfg.GridEstimators) > 0 {
		grid.Trees = cfg.GridEstimators
	}
	if len(cfg.GridMaxDepth) > 0 {
		grid.MaxDepth = cfg.GridMaxDepth
	}
	if len(cfg.GridMinSplit) > 0 {
		grid.MinSamplesSplit = cfg.GridMinSplit
	}
	if len(cfg.GridMinLeaf) > 0 {
		grid.MinSamplesLeaf = cfg.GridMinLeaf
	}
	return grid
}

func scoreFrom(datasetName, modelName string, r ml.Report) model.ModelScore {
	positive := r.Classes[1]
	return model.ModelScore{
		Dataset:   datasetName,
		Model:     modelName,
		Accuracy:  r.Accuracy,
		Precision: positive.Precision,
		Recall:    positive.Recall,
		F1:        positive.F1,
	}
}

func countMissing(f *dataset.Frame) int {
	total := 0
	for _, c := range dataset.NullCounts(f) {
		total += c
	}
	return total
}
