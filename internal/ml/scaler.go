// Package ml holds the classifiers, scaler, metrics and tuner of the pipeline.
package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNotFitted is returned when a model is used before Fit.
var ErrNotFitted = errors.New("model is not fitted")

// ErrWidthMismatch is returned when a row width differs from the fitted width.
var ErrWidthMismatch = errors.New("feature width mismatch")

// StandardScaler centres each feature and divides by its population deviation.
type StandardScaler struct {
	Mean  []float64 `msgpack:"mean"`
	Var   []float64 `msgpack:"var"`
	Scale []float64 `msgpack:"scale"`
}

// Fit learns per-feature mean and variance.
func (s *StandardScaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("fit scaler: no rows")
	}
	width := len(x[0])
	s.Mean = make([]float64, width)
	s.Var = make([]float64, width)
	s.Scale = make([]float64, width)
	col := make([]float64, len(x))
	for j := 0; j < width; j++ {
		for i, row := range x {
			if len(row) != width {
				return fmt.Errorf("fit scaler row %d: %w", i, ErrWidthMismatch)
			}
			col[i] = row[j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = mean
		s.Var[j] = variance
		s.Scale[j] = math.Sqrt(variance)
		if variance == 0 {
			s.Scale[j] = 1
		}
	}
	return nil
}

// Width returns the number of fitted features.
func (s *StandardScaler) Width() int {
	return len(s.Mean)
}

// TransformRow standardises a single row.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if s.Width() == 0 {
		return nil, ErrNotFitted
	}
	if len(row) != s.Width() {
		return nil, fmt.Errorf("%w: got %d, fitted %d", ErrWidthMismatch, len(row), s.Width())
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// Transform standardises every row.
func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		t, err := s.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// InverseTransform maps standardised rows back to the original units.
func (s *StandardScaler) InverseTransform(x [][]float64) ([][]float64, error) {
	if s.Width() == 0 {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != s.Width() {
			return nil, fmt.Errorf("row %d: %w", i, ErrWidthMismatch)
		}
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = v*s.Scale[j] + s.Mean[j]
		}
		out[i] = r
	}
	return out, nil
}

// FitTransform fits the scaler and transforms x.
func (s *StandardScaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
