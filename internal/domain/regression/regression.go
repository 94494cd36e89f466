// Package regression holds the fitted regression models the service can
// serve. Models are immutable after construction and safe for concurrent
// prediction.
package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model predicts one scalar per row of an encoded feature matrix.
type Model interface {
	Predict(X mat.Matrix) ([]float64, error)
	NumFeatures() int
	Kind() string
}

// TreeEnsemble is implemented by models whose prediction is
// Offset + Scale * sum(tree predictions).
type TreeEnsemble interface {
	Model
	Trees() []*Tree
	Scale() float64
	Offset() float64
}

// LinearModel is implemented by models whose prediction is
// Intercept + Coef . x.
type LinearModel interface {
	Model
	Coefficients() (coef []float64, intercept float64)
}

func checkWidth(X mat.Matrix, n int) (int, error) {
	r, c := X.Dims()
	if c != n {
		return 0, fmt.Errorf("%w: X has %d features, model expects %d", ErrFeatureMismatch, c, n)
	}
	return r, nil
}
