package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// ErrNotConverged marks a fit that stopped at its iteration limit.
var ErrNotConverged = errors.New("optimizer did not converge")

// LogisticRegression is an L2-regularised logistic model fit with L-BFGS.
// The intercept is not penalised.
type LogisticRegression struct {
	C             float64   `msgpack:"c"`
	MaxIterations int       `msgpack:"max_iter"`
	Weights       []float64 `msgpack:"weights"`
	Intercept     float64   `msgpack:"intercept"`
	Iterations    int       `msgpack:"iterations"`
}

// NewLogisticRegression returns a model with C=1 and 100 iterations.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1, MaxIterations: 100}
}

func (m *LogisticRegression) Kind() Kind { return KindLogistic }

// Fit minimises 0.5*|w|^2 + C*sum(log(1+exp(-y'(w.x+b)))) with y' in {-1,+1}.
// Stopping early keeps the last iterate and returns ErrNotConverged.
func (m *LogisticRegression) Fit(x [][]float64, y []int) error {
	width, err := validateTraining(x, y)
	if err != nil {
		return fmt.Errorf("fit logistic regression: %w", err)
	}
	if m.C <= 0 {
		m.C = 1
	}
	if m.MaxIterations <= 0 {
		m.MaxIterations = 100
	}
	signs := make([]float64, len(y))
	for i, label := range y {
		signs[i] = -1
		if label == 1 {
			signs[i] = 1
		}
	}

	c := m.C
	margins := make([]float64, len(x))
	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			w, b := params[:width], params[width]
			loss := 0.5 * floats.Dot(w, w)
			for i, row := range x {
				z := signs[i] * (floats.Dot(w, row) + b)
				loss += c * logOnePlusExp(-z)
			}
			return loss
		},
		Grad: func(grad, params []float64) {
			w, b := params[:width], params[width]
			copy(grad[:width], w)
			grad[width] = 0
			for i, row := range x {
				margins[i] = signs[i] * (floats.Dot(w, row) + b)
				coef := -c * signs[i] * sigmoid(-margins[i])
				floats.AddScaled(grad[:width], coef, row)
				grad[width] += coef
			}
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-4,
		MajorIterations:   m.MaxIterations,
	}
	initial := make([]float64, width+1)
	result, err := optimize.Minimize(problem, initial, settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("fit logistic regression: %w", err)
	}
	m.Weights = append([]float64(nil), result.X[:width]...)
	m.Intercept = result.X[width]
	m.Iterations = result.Stats.MajorIterations
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConverged, err)
	}
	if result.Status == optimize.IterationLimit {
		return ErrNotConverged
	}
	return nil
}

// Proba returns P(y=1) for each row.
func (m *LogisticRegression) Proba(x [][]float64) ([]float64, error) {
	if err := checkWidth(x, len(m.Weights)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = sigmoid(floats.Dot(m.Weights, row) + m.Intercept)
	}
	return out, nil
}

// Predict labels rows with probability above one half as 1.
func (m *LogisticRegression) Predict(x [][]float64) ([]int, error) {
	proba, err := m.Proba(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func logOnePlusExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
