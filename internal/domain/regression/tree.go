package regression

import "fmt"

// leafMarker marks a missing child in the flattened tree arrays.
const leafMarker = -1

// Tree is a fitted binary regression tree in flattened array form. Node 0 is
// the root; a node is a leaf when both children are -1. Rows go left when
// x[Feature] <= Threshold.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
	Weight        []float64 `json:"weight"`
}

// Validate checks array lengths, child indices and feature indices.
func (t *Tree) Validate(nFeatures int) error {
	n := len(t.Value)
	if n == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidTree)
	}
	if len(t.ChildrenLeft) != n || len(t.ChildrenRight) != n || len(t.Feature) != n ||
		len(t.Threshold) != n || len(t.Weight) != n {
		return fmt.Errorf("%w: node arrays have different lengths", ErrInvalidTree)
	}
	for i := 0; i < n; i++ {
		if t.Weight[i] <= 0 {
			return fmt.Errorf("%w: node %d has non-positive weight", ErrInvalidTree, i)
		}
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if (l == leafMarker) != (r == leafMarker) {
			return fmt.Errorf("%w: node %d has a single child", ErrInvalidTree, i)
		}
		if l == leafMarker {
			continue
		}
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("%w: node %d has out-of-order children", ErrInvalidTree, i)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("%w: node %d splits on feature %d of %d", ErrInvalidTree, i, f, nFeatures)
		}
	}
	return nil
}

// IsLeaf reports whether node is a leaf.
func (t *Tree) IsLeaf(node int) bool {
	return t.ChildrenLeft[node] == leafMarker
}

// Next returns the child a row follows from an internal node.
func (t *Tree) Next(node int, x []float64) int {
	if x[t.Feature[node]] <= t.Threshold[node] {
		return t.ChildrenLeft[node]
	}
	return t.ChildrenRight[node]
}

// PredictRow walks the tree for a single row.
func (t *Tree) PredictRow(x []float64) float64 {
	node := 0
	for !t.IsLeaf(node) {
		node = t.Next(node, x)
	}
	return t.Value[node]
}

// MaxDepth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) MaxDepth() int {
	return t.depth(0)
}

func (t *Tree) depth(node int) int {
	if t.IsLeaf(node) {
		return 0
	}
	return 1 + max(t.depth(t.ChildrenLeft[node]), t.depth(t.ChildrenRight[node]))
}
