package pipeline

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/verte-zerg/parkinsight/internal/dataset"
	"github.com/verte-zerg/parkinsight/internal/model"
	"github.com/verte-zerg/parkinsight/internal/report"
)

// ExploreConfig selects the datasets and columns summarised by Explore.
type ExploreConfig struct {
	VoiceSource   string
	SymptomSource string
	CacheDir      string
	Label         string
	// HeadRows is the number of leading rows printed per dataset.
	HeadRows int
	Width    int
}

// Explore prints the exploratory summary of both datasets to w. Outlier
// counts are computed on a copy, so nothing is modified.
func Explore(ctx context.Context, log *zap.SugaredLogger, cfg ExploreConfig, w io.Writer) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.HeadRows <= 0 {
		cfg.HeadRows = 10
	}

	voice, source, err := dataset.Load(ctx, cfg.VoiceSource, cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to load voice dataset: %w", err)
	}
	log.Infow("voice dataset loaded", "path", source.Path, "cached", source.Cached)
	if err := summarize(w, "Voice dataset", voice, cfg.HeadRows); err != nil {
		return err
	}

	labeled, err := dataset.SplitLabel(voice, cfg.Label, model.VoiceColumns)
	if err != nil {
		return fmt.Errorf("voice dataset: %w", err)
	}
	if err := report.RenderClassCounts(w, cfg.Label, dataset.ClassCounts(labeled.Labels), cfg.Width); err != nil {
		return err
	}
	corr, err := dataset.Correlation(voice, model.ImportantVoiceColumns)
	if err != nil {
		return fmt.Errorf("voice dataset: %w", err)
	}
	if err := report.RenderCorrelation(w, model.ImportantVoiceColumns, corr, false); err != nil {
		return err
	}
	features := labeled.Features.Clone()
	bounds := dataset.FitOutlierBounds(features)
	before := bounds.CountOutlierRows(features)
	bounds.Apply(features)
	if err := report.RenderOutliers(w, before, bounds.CountOutlierRows(features)); err != nil {
		return err
	}

	if cfg.SymptomSource == "" {
		return nil
	}
	symptom, source, err := dataset.Load(ctx, cfg.SymptomSource, cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to load symptom dataset: %w", err)
	}
	log.Infow("symptom dataset loaded", "path", source.Path, "cached", source.Cached)
	return summarize(w, "Symptom dataset", symptom, cfg.HeadRows)
}

func summarize(w io.Writer, title string, f *dataset.Frame, headRows int) error {
	if _, err := fmt.Fprintf(w, "== %s ==\n\n", title); err != nil {
		return err
	}
	if err := report.RenderHead(w, f, headRows); err != nil {
		return err
	}
	if err := report.RenderShape(w, title, f); err != nil {
		return err
	}
	if err := report.RenderNulls(w, f); err != nil {
		return err
	}
	if err := report.RenderDuplicates(w, f); err != nil {
		return err
	}
	return report.RenderDescribe(w, dataset.Describe(f))
}
