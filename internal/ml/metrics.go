package ml

import "fmt"

// Accuracy is the share of matching labels.
func Accuracy(truth, pred []int) (float64, error) {
	if len(truth) != len(pred) {
		return 0, fmt.Errorf("accuracy: %d labels vs %d predictions", len(truth), len(pred))
	}
	if len(truth) == 0 {
		return 0, fmt.Errorf("accuracy: no labels")
	}
	hits := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth)), nil
}

// ConfusionMatrix counts [truth][prediction] for classes 0 and 1.
type ConfusionMatrix [2][2]int

// Confusion tallies truth against predictions.
func Confusion(truth, pred []int) (ConfusionMatrix, error) {
	var m ConfusionMatrix
	if len(truth) != len(pred) {
		return m, fmt.Errorf("confusion: %d labels vs %d predictions", len(truth), len(pred))
	}
	for i := range truth {
		if truth[i] < 0 || truth[i] > 1 || pred[i] < 0 || pred[i] > 1 {
			return m, fmt.Errorf("confusion: row %d holds a non-binary label", i)
		}
		m[truth[i]][pred[i]]++
	}
	return m, nil
}

// ClassMetrics is the per-class section of a classification report.
type ClassMetrics struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report mirrors a textual classification report.
type Report struct {
	Classes     []ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Confusion   ConfusionMatrix
}

// ClassificationReport computes precision, recall and F1 per class plus averages.
// Undefined ratios are reported as zero.
func ClassificationReport(truth, pred []int) (Report, error) {
	cm, err := Confusion(truth, pred)
	if err != nil {
		return Report{}, err
	}
	acc, err := Accuracy(truth, pred)
	if err != nil {
		return Report{}, err
	}
	report := Report{Accuracy: acc, Confusion: cm}
	total := 0
	for c := 0; c < 2; c++ {
		tp := cm[c][c]
		fp := cm[1-c][c]
		fn := cm[c][1-c]
		precision := safeDiv(float64(tp), float64(tp+fp))
		recall := safeDiv(float64(tp), float64(tp+fn))
		f1 := safeDiv(2*precision*recall, precision+recall)
		support := tp + fn
		total += support
		report.Classes = append(report.Classes, ClassMetrics{
			Label:     fmt.Sprintf("%d", c),
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		})
	}

	macro := ClassMetrics{Label: "macro avg", Support: total}
	weighted := ClassMetrics{Label: "weighted avg", Support: total}
	for _, cls := range report.Classes {
		macro.Precision += cls.Precision / 2
		macro.Recall += cls.Recall / 2
		macro.F1 += cls.F1 / 2
		w := safeDiv(float64(cls.Support), float64(total))
		weighted.Precision += cls.Precision * w
		weighted.Recall += cls.Recall * w
		weighted.F1 += cls.F1 * w
	}
	report.MacroAvg = macro
	report.WeightedAvg = weighted
	return report, nil
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Evaluate predicts x with c and reports against y.
func Evaluate(c Classifier, x [][]float64, y []int) (Report, error) {
	pred, err := c.Predict(x)
	if err != nil {
		return Report{}, fmt.Errorf("evaluate %s: %w", c.Kind(), err)
	}
	return ClassificationReport(y, pred)
}
