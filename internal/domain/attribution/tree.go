package attribution

import (
	"github.com/okian/salary-insight/internal/domain/regression"
)

// treeExplainer computes exact path-dependent TreeSHAP values. Cover
// fractions come from the node weights recorded at fit time, so no
// background data is needed.
type treeExplainer struct {
	ens regression.TreeEnsemble
}

func newTreeExplainer(ens regression.TreeEnsemble) *treeExplainer {
	return &treeExplainer{ens: ens}
}

func (e *treeExplainer) Method() Algorithm { return AlgorithmTree }

func (e *treeExplainer) Explain(x []float64) (Attribution, error) {
	n := e.ens.NumFeatures()
	if err := checkRow(x, n); err != nil {
		return Attribution{}, err
	}

	phi := make([]float64, n)
	base := 0.0
	scale := e.ens.Scale()
	treePhi := make([]float64, n)
	for _, t := range e.ens.Trees() {
		clear(treePhi)
		path := make([]pathElement, 1)
		treeShap(t, x, treePhi, 0, path, 0, 1, 1, -1)
		for i := range phi {
			phi[i] += scale * treePhi[i]
		}
		base += scale * expectedValue(t, 0)
	}

	return Attribution{Values: phi, BaseValue: e.ens.Offset() + base, Method: AlgorithmTree}, nil
}

// expectedValue is the cover-weighted mean leaf value under node.
func expectedValue(t *regression.Tree, node int) float64 {
	if t.IsLeaf(node) {
		return t.Value[node]
	}
	l, r := t.ChildrenLeft[node], t.ChildrenRight[node]
	return (t.Weight[l]*expectedValue(t, l) + t.Weight[r]*expectedValue(t, r)) / t.Weight[node]
}

// pathElement tracks one feature on the unique path from the root.
type pathElement struct {
	feature      int
	zeroFraction float64
	oneFraction  float64
	weight       float64
}

// treeShap recursively accumulates SHAP values into phi. parent holds the
// unique path of the caller; depth is the index the new element takes.
func treeShap(t *regression.Tree, x, phi []float64, node int, parent []pathElement, depth int,
	zeroFraction, oneFraction float64, feature int,
) {
	path := make([]pathElement, depth+1)
	copy(path, parent)
	extendPath(path, depth, zeroFraction, oneFraction, feature)

	if t.IsLeaf(node) {
		leaf := t.Value[node]
		for i := 1; i <= depth; i++ {
			w := unwoundPathSum(path, depth, i)
			el := path[i]
			phi[el.feature] += w * (el.oneFraction - el.zeroFraction) * leaf
		}
		return
	}

	hot := t.Next(node, x)
	cold := t.ChildrenRight[node]
	if hot == cold {
		cold = t.ChildrenLeft[node]
	}
	w := t.Weight[node]
	hotZero := t.Weight[hot] / w
	coldZero := t.Weight[cold] / w

	split := t.Feature[node]
	incomingZero, incomingOne := 1.0, 1.0
	k := 0
	for ; k <= depth; k++ {
		if path[k].feature == split {
			break
		}
	}
	if k <= depth {
		incomingZero = path[k].zeroFraction
		incomingOne = path[k].oneFraction
		unwindPath(path, depth, k)
		depth--
	}

	treeShap(t, x, phi, hot, path, depth+1, hotZero*incomingZero, incomingOne, split)
	treeShap(t, x, phi, cold, path, depth+1, coldZero*incomingZero, 0, split)
}

func extendPath(path []pathElement, depth int, zeroFraction, oneFraction float64, feature int) {
	w := 0.0
	if depth == 0 {
		w = 1
	}
	path[depth] = pathElement{feature: feature, zeroFraction: zeroFraction, oneFraction: oneFraction, weight: w}
	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		path[i+1].weight += oneFraction * path[i].weight * float64(i+1) / d
		path[i].weight = zeroFraction * path[i].weight * float64(depth-i) / d
	}
}

func unwindPath(path []pathElement, depth, index int) {
	one := path[index].oneFraction
	zero := path[index].zeroFraction
	next := path[depth].weight
	d := float64(depth + 1)
	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].weight
			path[i].weight = next * d / (float64(i+1) * one)
			next = tmp - path[i].weight*zero*float64(depth-i)/d
		} else {
			path[i].weight = path[i].weight * d / (zero * float64(depth-i))
		}
	}
	for i := index; i < depth; i++ {
		path[i].feature = path[i+1].feature
		path[i].zeroFraction = path[i+1].zeroFraction
		path[i].oneFraction = path[i+1].oneFraction
	}
}

func unwoundPathSum(path []pathElement, depth, index int) float64 {
	one := path[index].oneFraction
	zero := path[index].zeroFraction
	next := path[depth].weight
	d := float64(depth + 1)
	total := 0.0
	for i := depth - 1; i >= 0; i-- {
		if one != 0 {
			tmp := next * d / (float64(i+1) * one)
			total += tmp
			next = path[i].weight - tmp*zero*float64(depth-i)/d
		} else if zero != 0 {
			total += path[i].weight / zero / (float64(depth-i) / d)
		}
	}
	return total
}
