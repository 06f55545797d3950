package ml

import "fmt"

// Kind names a classifier family.
type Kind string

const (
	KindSVM      Kind = "svm"
	KindForest   Kind = "random_forest"
	KindLogistic Kind = "logistic_regression"
	KindBoost    Kind = "gradient_boosting"
)

// Classifier is a binary classifier over dense rows with labels 0 and 1.
type Classifier interface {
	Kind() Kind
	Fit(x [][]float64, y []int) error
	Predict(x [][]float64) ([]int, error)
}

// DisplayName returns the report label of a classifier family.
func DisplayName(k Kind) string {
	switch k {
	case KindSVM:
		return "SVM"
	case KindForest:
		return "Random Forest"
	case KindLogistic:
		return "Logistic Regression"
	case KindBoost:
		return "XGBoost"
	default:
		return string(k)
	}
}

// PredictOne classifies a single row.
func PredictOne(c Classifier, row []float64) (int, error) {
	out, err := c.Predict([][]float64{row})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

func validateTraining(x [][]float64, y []int) (int, error) {
	if len(x) == 0 {
		return 0, fmt.Errorf("no training rows")
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("rows and labels differ: %d vs %d", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return 0, fmt.Errorf("row %d: %w", i, ErrWidthMismatch)
		}
		if y[i] != 0 && y[i] != 1 {
			return 0, fmt.Errorf("row %d: label must be 0 or 1, got %d", i, y[i])
		}
	}
	return width, nil
}

func checkWidth(x [][]float64, width int) error {
	if width == 0 {
		return ErrNotFitted
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("row %d: %w: got %d, fitted %d", i, ErrWidthMismatch, len(row), width)
		}
	}
	return nil
}
