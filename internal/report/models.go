package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/verte-zerg/parkinsight/internal/ml"
	"github.com/verte-zerg/parkinsight/internal/model"
)

// RenderClassificationReport prints precision, recall, F1 and support per class.
func RenderClassificationReport(w io.Writer, title string, r ml.Report) error {
	headers := []string{"", "precision", "recall", "f1-score", "support"}
	rows := make([][]string, 0, len(r.Classes)+3)
	for _, c := range r.Classes {
		rows = append(rows, metricsRow(c))
	}
	support := r.MacroAvg.Support
	rows = append(rows,
		[]string{"accuracy", "", "", fmt.Sprintf("%.2f", r.Accuracy), strconv.Itoa(support)},
		metricsRow(r.MacroAvg),
		metricsRow(r.WeightedAvg),
	)
	if title != "" {
		if err := heading(w, title); err != nil {
			return err
		}
	}
	if err := writeLines(w, formatTable(headers, rows, rightAlignFrom(0, len(headers)))); err != nil {
		return err
	}
	return blank(w)
}

func metricsRow(c ml.ClassMetrics) []string {
	return []string{
		c.Label,
		fmt.Sprintf("%.2f", c.Precision),
		fmt.Sprintf("%.2f", c.Recall),
		fmt.Sprintf("%.2f", c.F1),
		strconv.Itoa(c.Support),
	}
}

// RenderConfusion prints a 2x2 confusion matrix with true labels as rows.
func RenderConfusion(w io.Writer, cm ml.ConfusionMatrix) error {
	headers := []string{"true\\pred", "0", "1"}
	rows := [][]string{
		{"0", strconv.Itoa(cm[0][0]), strconv.Itoa(cm[0][1])},
		{"1", strconv.Itoa(cm[1][0]), strconv.Itoa(cm[1][1])},
	}
	if err := heading(w, "Confusion matrix"); err != nil {
		return err
	}
	if err := writeLines(w, formatTable(headers, rows, rightAlignFrom(1, len(headers)))); err != nil {
		return err
	}
	return blank(w)
}

// RenderAccuracyComparison charts test accuracy per model as percentages.
func RenderAccuracyComparison(w io.Writer, scores []model.ModelScore, width int) error {
	bars := make([]Bar, len(scores))
	for i, s := range scores {
		bars[i] = Bar{Label: s.Model, Value: s.Accuracy * 100}
	}
	return BarChart{
		Title:  "Accuracy comparison",
		Bars:   bars,
		Width:  width,
		Format: "%.2f%%",
	}.Render(w)
}

// TopCandidates returns the n best grid candidates by mean score. Ties keep
// candidate order.
func TopCandidates(scores []model.GridScore, n int) []model.GridScore {
	if n <= 0 || len(scores) == 0 {
		return nil
	}
	sorted := make([]model.GridScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Mean > sorted[j].Mean
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// RenderGridSearch prints the best candidates and the cross-validation curve.
func RenderGridSearch(w io.Writer, scores []model.GridScore, top, width, height int) error {
	if len(scores) == 0 {
		_, err := fmt.Fprintln(w, "No tuning scores recorded.")
		return err
	}
	best := TopCandidates(scores, top)
	if _, err := fmt.Fprintf(w, "Best hyperparameters: %s\n", best[0].Params); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best cross-validation accuracy: %.4f\n\n", best[0].Mean); err != nil {
		return err
	}
	rows := make([][]string, len(best))
	for i, g := range best {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.4f", g.Mean),
			fmt.Sprintf("%.4f", g.Std),
			g.Params,
		}
	}
	if err := heading(w, fmt.Sprintf("Top %d of %d candidates", len(best), len(scores))); err != nil {
		return err
	}
	if err := writeLines(w, formatTable([]string{"Rank", "Mean", "Std", "Parameters"}, rows, map[int]bool{0: true, 1: true, 2: true})); err != nil {
		return err
	}
	if err := blank(w); err != nil {
		return err
	}

	means := make([]float64, len(scores))
	for i, g := range scores {
		means[i] = g.Mean
	}
	plotWidth := 0
	if width > 0 {
		plotWidth = PlotWidthFor(width)
	}
	return Plot{
		Title:  "Mean CV accuracy by candidate",
		Series: []Series{{Name: "mean accuracy", Values: means}},
		Width:  plotWidth,
		Height: height,
		Shared: true,
	}.Render(w)
}

// RenderFeatures prints extracted voice features in model-input order.
func RenderFeatures(w io.Writer, f model.VoiceFeatures) error {
	named := f.Named()
	rows := make([][]string, len(named))
	for i, nv := range named {
		rows[i] = []string{nv.Name, formatNumber(nv.Value)}
	}
	if err := writeLines(w, formatTable([]string{"Feature", "Value"}, rows, map[int]bool{1: true})); err != nil {
		return err
	}
	return blank(w)
}

// RenderDiagnosis prints both model outputs and the combined verdict.
func RenderDiagnosis(w io.Writer, d model.Diagnosis) error {
	if _, err := fmt.Fprintf(w, "Voice model prediction: %d\n", d.VoicePrediction); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Symptom model prediction: %d\n", d.SymptomPrediction); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, string(d.Verdict))
	return err
}

// RenderRuns prints one line per recorded training run, newest first.
func RenderRuns(w io.Writer, runs []model.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	headers := []string{"Run", "Started", "Duration", "Voice rows", "Best voice model", "Accuracy"}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		bestName, bestAcc := "-", "-"
		if best, ok := BestScore(r.Scores, "voice"); ok {
			bestName = best.Model
			bestAcc = fmt.Sprintf("%.2f%%", best.Accuracy*100)
		}
		rows[i] = []string{
			shortID(r.Run.ID),
			r.Run.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Run.EndedAt.Sub(r.Run.StartedAt).Round(100 * time.Millisecond).String(),
			strconv.Itoa(r.Run.VoiceRows),
			bestName,
			bestAcc,
		}
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{2: true, 3: true, 5: true}))
}

// BestScore returns the highest-accuracy score for a dataset. Ties keep the
// first score.
func BestScore(scores []model.ModelScore, dataset string) (model.ModelScore, bool) {
	var best model.ModelScore
	found := false
	for _, s := range scores {
		if s.Dataset != dataset {
			continue
		}
		if !found || s.Accuracy > best.Accuracy {
			best = s
			found = true
		}
	}
	return best, found
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
