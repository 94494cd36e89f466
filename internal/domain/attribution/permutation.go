package attribution

import (
	"fmt"
	"math/rand/v2"

	"github.com/okian/salary-insight/internal/domain/regression"
	"gonum.org/v1/gonum/mat"
)

// permutationExplainer estimates Shapley values by walking random feature
// orderings from the background row to the explained row. Each ordering
// telescopes to f(x) - f(background), so the estimate is always additive.
type permutationExplainer struct {
	model     regression.Model
	reference []float64
	samples   int
	seed      int64
}

func newPermutationExplainer(m regression.Model, bg []float64, samples int, seed int64) *permutationExplainer {
	return &permutationExplainer{model: m, reference: bg, samples: samples, seed: seed}
}

func (e *permutationExplainer) Method() Algorithm { return AlgorithmPermutation }

func (e *permutationExplainer) Explain(x []float64) (Attribution, error) {
	n := e.model.NumFeatures()
	if err := checkRow(x, n); err != nil {
		return Attribution{}, err
	}

	base, err := e.model.Predict(mat.NewDense(1, n, append([]float64(nil), e.reference...)))
	if err != nil {
		return Attribution{}, fmt.Errorf("predict background: %w", err)
	}

	rng := rand.New(rand.NewPCG(uint64(e.seed), uint64(e.seed)^0x9e3779b97f4a7c15))
	phi := make([]float64, n)
	// Row k of the walk has the first k features of the ordering switched to x.
	walk := mat.NewDense(n+1, n, nil)
	for s := 0; s < e.samples; s++ {
		order := rng.Perm(n)
		walk.SetRow(0, e.reference)
		for k, j := range order {
			row := walk.RawRowView(k + 1)
			copy(row, walk.RawRowView(k))
			row[j] = x[j]
		}
		preds, err := e.model.Predict(walk)
		if err != nil {
			return Attribution{}, fmt.Errorf("predict permutation: %w", err)
		}
		for k, j := range order {
			phi[j] += preds[k+1] - preds[k]
		}
	}
	for i := range phi {
		phi[i] /= float64(e.samples)
	}

	return Attribution{Values: phi, BaseValue: base[0], Method: AlgorithmPermutation}, nil
}
