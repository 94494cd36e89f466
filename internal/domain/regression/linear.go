package regression

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is an ordinary linear regressor.
type Linear struct {
	coef      []float64
	intercept float64
}

// NewLinear builds a linear regressor.
func NewLinear(coef []float64, intercept float64) (*Linear, error) {
	if len(coef) == 0 {
		return nil, fmt.Errorf("%w: linear model has no coefficients", ErrInvalidModel)
	}
	return &Linear{coef: append([]float64(nil), coef...), intercept: intercept}, nil
}

func (l *Linear) Kind() string     { return KindLinear }
func (l *Linear) NumFeatures() int { return len(l.coef) }

// Coefficients returns a copy of the coefficients and the intercept.
func (l *Linear) Coefficients() ([]float64, float64) {
	return append([]float64(nil), l.coef...), l.intercept
}

// Predict returns Intercept + Coef . x per row.
func (l *Linear) Predict(X mat.Matrix) ([]float64, error) {
	rows, err := checkWidth(X, len(l.coef))
	if err != nil {
		return nil, err
	}
	out := make([]float64, rows)
	x := make([]float64, len(l.coef))
	for i := 0; i < rows; i++ {
		mat.Row(x, i, X)
		out[i] = l.intercept + floats.Dot(l.coef, x)
	}
	return out, nil
}
