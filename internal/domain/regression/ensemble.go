package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model kinds as they appear in artifacts and stats.
const (
	KindRandomForest     = "random_forest"
	KindGradientBoosting = "gradient_boosting"
	KindLinear           = "linear"
)

// Forest averages the predictions of its trees.
type Forest struct {
	trees     []*Tree
	nFeatures int
}

// NewForest validates trees and builds a random-forest regressor.
func NewForest(trees []*Tree, nFeatures int) (*Forest, error) {
	if err := validateEnsemble(trees, nFeatures); err != nil {
		return nil, err
	}
	return &Forest{trees: trees, nFeatures: nFeatures}, nil
}

func (f *Forest) Kind() string     { return KindRandomForest }
func (f *Forest) NumFeatures() int { return f.nFeatures }
func (f *Forest) Trees() []*Tree   { return f.trees }
func (f *Forest) Scale() float64   { return 1 / float64(len(f.trees)) }
func (f *Forest) Offset() float64  { return 0 }

// Predict returns the mean tree prediction per row.
func (f *Forest) Predict(X mat.Matrix) ([]float64, error) {
	return predictEnsemble(f, X)
}

// Boosted is a gradient-boosted regressor: Init + LearningRate * sum(trees).
type Boosted struct {
	trees        []*Tree
	nFeatures    int
	learningRate float64
	init         float64
}

// NewBoosted validates trees and builds a gradient-boosting regressor.
func NewBoosted(trees []*Tree, nFeatures int, learningRate, init float64) (*Boosted, error) {
	if err := validateEnsemble(trees, nFeatures); err != nil {
		return nil, err
	}
	if learningRate <= 0 {
		return nil, fmt.Errorf("%w: learning rate must be positive", ErrInvalidModel)
	}
	return &Boosted{trees: trees, nFeatures: nFeatures, learningRate: learningRate, init: init}, nil
}

func (b *Boosted) Kind() string     { return KindGradientBoosting }
func (b *Boosted) NumFeatures() int { return b.nFeatures }
func (b *Boosted) Trees() []*Tree   { return b.trees }
func (b *Boosted) Scale() float64   { return b.learningRate }
func (b *Boosted) Offset() float64  { return b.init }

// Predict returns Init + LearningRate * sum of tree predictions per row.
func (b *Boosted) Predict(X mat.Matrix) ([]float64, error) {
	return predictEnsemble(b, X)
}

func validateEnsemble(trees []*Tree, nFeatures int) error {
	if nFeatures <= 0 {
		return fmt.Errorf("%w: n_features must be positive", ErrInvalidModel)
	}
	if len(trees) == 0 {
		return fmt.Errorf("%w: ensemble has no trees", ErrInvalidModel)
	}
	for i, t := range trees {
		if t == nil {
			return fmt.Errorf("%w: tree %d is nil", ErrInvalidTree, i)
		}
		if err := t.Validate(nFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func predictEnsemble(e TreeEnsemble, X mat.Matrix) ([]float64, error) {
	rows, err := checkWidth(X, e.NumFeatures())
	if err != nil {
		return nil, err
	}
	out := make([]float64, rows)
	x := make([]float64, e.NumFeatures())
	for i := 0; i < rows; i++ {
		mat.Row(x, i, X)
		sum := 0.0
		for _, t := range e.Trees() {
			sum += t.PredictRow(x)
		}
		out[i] = e.Offset() + e.Scale()*sum
	}
	return out, nil
}
