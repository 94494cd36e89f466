package attribution

import (
	"github.com/okian/salary-insight/internal/domain/regression"
	"gonum.org/v1/gonum/floats"
)

// linearExplainer attributes coef[i] * (x[i] - background[i]) to feature i,
// which is the exact Shapley value for a linear model with independent
// features.
type linearExplainer struct {
	coef      []float64
	base      float64
	reference []float64
}

func newLinearExplainer(m regression.LinearModel, bg []float64) *linearExplainer {
	coef, intercept := m.Coefficients()
	return &linearExplainer{
		coef:      coef,
		base:      intercept + floats.Dot(coef, bg),
		reference: bg,
	}
}

func (e *linearExplainer) Method() Algorithm { return AlgorithmLinear }

func (e *linearExplainer) Explain(x []float64) (Attribution, error) {
	if err := checkRow(x, len(e.coef)); err != nil {
		return Attribution{}, err
	}
	phi := make([]float64, len(x))
	floats.SubTo(phi, x, e.reference)
	floats.Mul(phi, e.coef)
	return Attribution{Values: phi, BaseValue: e.base, Method: AlgorithmLinear}, nil
}
