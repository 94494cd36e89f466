// Package attribution decomposes a single prediction into per-feature
// contributions. The explainer is chosen from the model's capabilities:
// exact TreeSHAP for tree ensembles, exact linear attribution for linear
// models and permutation sampling for anything else.
package attribution

import (
	"fmt"

	"github.com/okian/salary-insight/internal/domain/regression"
)

// Algorithm selects the attribution method.
type Algorithm string

// Supported algorithms.
const (
	AlgorithmAuto        Algorithm = "auto"
	AlgorithmTree        Algorithm = "tree"
	AlgorithmLinear      Algorithm = "linear"
	AlgorithmPermutation Algorithm = "permutation"
)

// Default sampling configuration for the permutation explainer.
const (
	defaultSamples = 64
	defaultSeed    = 42
)

// Attribution is the decomposition of one prediction:
// BaseValue + sum(Values) approximates the model output.
type Attribution struct {
	Values    []float64
	BaseValue float64
	Method    Algorithm
}

// Explainer computes attributions for one encoded row.
type Explainer interface {
	Explain(x []float64) (Attribution, error)
	Method() Algorithm
}

// Option applies a configuration option to New.
type Option func(*settings)

type settings struct {
	algorithm  Algorithm
	background []float64
	samples    int
	seed       int64
}

// WithAlgorithm forces a specific algorithm instead of auto selection.
func WithAlgorithm(a Algorithm) Option {
	return func(s *settings) {
		if a != "" {
			s.algorithm = a
		}
	}
}

// WithBackground sets the reference row used by the linear and permutation
// explainers. Without it the reference is the zero vector.
func WithBackground(bg []float64) Option {
	return func(s *settings) {
		if len(bg) > 0 {
			s.background = append([]float64(nil), bg...)
		}
	}
}

// WithSamples sets the number of permutations drawn by the permutation explainer.
func WithSamples(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.samples = n
		}
	}
}

// WithSeed seeds the permutation sampler so results are reproducible.
func WithSeed(seed int64) Option {
	return func(s *settings) {
		s.seed = seed
	}
}

// New builds an explainer for m.
func New(m regression.Model, opts ...Option) (Explainer, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", ErrUnsupportedModel)
	}
	s := settings{algorithm: AlgorithmAuto, samples: defaultSamples, seed: defaultSeed}
	for _, opt := range opts {
		opt(&s)
	}

	bg := s.background
	if bg == nil {
		bg = make([]float64, m.NumFeatures())
	}
	if len(bg) != m.NumFeatures() {
		return nil, fmt.Errorf("%w: %d values for %d features", ErrBackgroundMismatch, len(bg), m.NumFeatures())
	}

	algo := s.algorithm
	if algo == AlgorithmAuto {
		algo = selectAlgorithm(m)
	}

	switch algo {
	case AlgorithmTree:
		ens, ok := m.(regression.TreeEnsemble)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a tree ensemble", ErrUnsupportedModel, m.Kind())
		}
		return newTreeExplainer(ens), nil
	case AlgorithmLinear:
		lin, ok := m.(regression.LinearModel)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not linear", ErrUnsupportedModel, m.Kind())
		}
		return newLinearExplainer(lin, bg), nil
	case AlgorithmPermutation:
		return newPermutationExplainer(m, bg, s.samples, s.seed), nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrUnsupportedModel, algo)
	}
}

func selectAlgorithm(m regression.Model) Algorithm {
	switch m.(type) {
	case regression.TreeEnsemble:
		return AlgorithmTree
	case regression.LinearModel:
		return AlgorithmLinear
	default:
		return AlgorithmPermutation
	}
}

func checkRow(x []float64, n int) error {
	if len(x) != n {
		return fmt.Errorf("%w: row has %d values, model expects %d", ErrShapeMismatch, len(x), n)
	}
	return nil
}
