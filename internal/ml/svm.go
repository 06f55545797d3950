package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	svmTau     = 1e-12
	svmEpsilon = 1e-3
)

// LinearSVC is a soft-margin support vector classifier with a linear kernel,
// solved in the dual by sequential minimal optimisation.
type LinearSVC struct {
	C       float64   `msgpack:"c"`
	Weights []float64 `msgpack:"weights"`
	Rho     float64   `msgpack:"rho"`
	// SupportVectors counts rows with a non-zero multiplier.
	SupportVectors int `msgpack:"support_vectors"`
	Iterations     int `msgpack:"iterations"`
}

// NewLinearSVC returns a classifier with penalty c.
func NewLinearSVC(c float64) *LinearSVC {
	return &LinearSVC{C: c}
}

func (m *LinearSVC) Kind() Kind { return KindSVM }

// Fit solves the dual problem with second-order working set selection.
func (m *LinearSVC) Fit(x [][]float64, labels []int) error {
	width, err := validateTraining(x, labels)
	if err != nil {
		return fmt.Errorf("fit svm: %w", err)
	}
	if m.C <= 0 {
		m.C = 1
	}
	n := len(x)
	y := make([]float64, n)
	for i, label := range labels {
		y[i] = -1
		if label == 1 {
			y[i] = 1
		}
	}

	q := make([][]float64, n)
	qd := make([]float64, n)
	for i := 0; i < n; i++ {
		q[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			k := floats.Dot(x[i], x[j])
			q[i][j] = y[i] * y[j] * k
			q[j][i] = q[i][j]
		}
		qd[i] = q[i][i] * y[i] * y[i]
	}

	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}

	c := m.C
	upper := func(i int) bool { return alpha[i] >= c }
	lower := func(i int) bool { return alpha[i] <= 0 }

	maxIter := 10000000
	if 100*n > maxIter {
		maxIter = 100 * n
	}
	iter := 0
	for ; iter < maxIter; iter++ {
		i, j, ok := selectWorkingSet(y, grad, q, qd, upper, lower)
		if !ok {
			break
		}
		oldI, oldJ := alpha[i], alpha[j]
		if y[i] != y[j] {
			quad := qd[i] + qd[j] + 2*q[i][j]
			if quad <= 0 {
				quad = svmTau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = c - diff
				}
			} else if alpha[j] > c {
				alpha[j] = c
				alpha[i] = c + diff
			}
		} else {
			quad := qd[i] + qd[j] - 2*q[i][j]
			if quad <= 0 {
				quad = svmTau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > c {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = sum - c
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > c {
				if alpha[j] > c {
					alpha[j] = c
					alpha[i] = sum - c
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}
		dI := alpha[i] - oldI
		dJ := alpha[j] - oldJ
		for k := 0; k < n; k++ {
			grad[k] += q[i][k]*dI + q[j][k]*dJ
		}
	}

	m.Rho = computeRho(y, grad, upper, lower)
	m.Weights = make([]float64, width)
	m.SupportVectors = 0
	for i := 0; i < n; i++ {
		if alpha[i] == 0 {
			continue
		}
		m.SupportVectors++
		floats.AddScaled(m.Weights, alpha[i]*y[i], x[i])
	}
	m.Iterations = iter
	return nil
}

func selectWorkingSet(y, grad []float64, q [][]float64, qd []float64, upper, lower func(int) bool) (int, int, bool) {
	gmax := math.Inf(-1)
	gmax2 := math.Inf(-1)
	gmaxIdx := -1
	for t := range y {
		if y[t] == 1 {
			if !upper(t) && -grad[t] >= gmax {
				gmax = -grad[t]
				gmaxIdx = t
			}
		} else if !lower(t) && grad[t] >= gmax {
			gmax = grad[t]
			gmaxIdx = t
		}
	}
	if gmaxIdx == -1 {
		return 0, 0, false
	}
	i := gmaxIdx
	gminIdx := -1
	objMin := math.Inf(1)
	for j := range y {
		var gradDiff, quad float64
		if y[j] == 1 {
			if lower(j) {
				continue
			}
			gradDiff = gmax + grad[j]
			if grad[j] >= gmax2 {
				gmax2 = grad[j]
			}
			quad = qd[i] + qd[j] - 2*y[i]*q[i][j]
		} else {
			if upper(j) {
				continue
			}
			gradDiff = gmax - grad[j]
			if -grad[j] >= gmax2 {
				gmax2 = -grad[j]
			}
			quad = qd[i] + qd[j] + 2*y[i]*q[i][j]
		}
		if gradDiff <= 0 {
			continue
		}
		if quad <= 0 {
			quad = svmTau
		}
		obj := -(gradDiff * gradDiff) / quad
		if obj <= objMin {
			gminIdx = j
			objMin = obj
		}
	}
	if gmax+gmax2 < svmEpsilon || gminIdx == -1 {
		return 0, 0, false
	}
	return i, gminIdx, true
}

func computeRho(y, grad []float64, upper, lower func(int) bool) float64 {
	ub := math.Inf(1)
	lb := math.Inf(-1)
	free := 0
	sumFree := 0.0
	for i := range y {
		yg := y[i] * grad[i]
		switch {
		case upper(i):
			if y[i] == -1 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case lower(i):
			if y[i] == 1 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			free++
			sumFree += yg
		}
	}
	if free > 0 {
		return sumFree / float64(free)
	}
	return (ub + lb) / 2
}

// Decision returns the signed distance score of each row.
func (m *LinearSVC) Decision(x [][]float64) ([]float64, error) {
	if err := checkWidth(x, len(m.Weights)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = floats.Dot(m.Weights, row) - m.Rho
	}
	return out, nil
}

// Predict labels rows with a positive decision as 1.
func (m *LinearSVC) Predict(x [][]float64) ([]int, error) {
	scores, err := m.Decision(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(scores))
	for i, s := range scores {
		if s > 0 {
			out[i] = 1
		}
	}
	return out, nil
}
