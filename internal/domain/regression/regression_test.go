package regression_test

import (
	"errors"
	"testing"

	"github.com/okian/salary-insight/internal/domain/regression"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

// stump splits feature f at thr: left leaf lv, right leaf rv.
func stump(f int, thr, lv, rv float64) *regression.Tree {
	return &regression.Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{f, -2, -2},
		Threshold:     []float64{thr, -2, -2},
		Value:         []float64{(lv + rv) / 2, lv, rv},
		Weight:        []float64{2, 1, 1},
	}
}

func TestTree(t *testing.T) {
	Convey("Given a depth-two tree", t, func() {
		tree := &regression.Tree{
			ChildrenLeft:  []int{1, 3, -1, -1, -1},
			ChildrenRight: []int{2, 4, -1, -1, -1},
			Feature:       []int{0, 1, -2, -2, -2},
			Threshold:     []float64{0.5, 10, -2, -2, -2},
			Value:         []float64{0, 0, 30, 10, 20},
			Weight:        []float64{4, 3, 1, 2, 1},
		}

		Convey("Then it should validate and route rows", func() {
			So(tree.Validate(2), ShouldBeNil)
			So(tree.MaxDepth(), ShouldEqual, 2)
			So(tree.PredictRow([]float64{0, 5}), ShouldEqual, 10)
			So(tree.PredictRow([]float64{0, 10}), ShouldEqual, 10)
			So(tree.PredictRow([]float64{0, 11}), ShouldEqual, 20)
			So(tree.PredictRow([]float64{1, 0}), ShouldEqual, 30)
		})

		Convey("When the split feature exceeds the model width", func() {
			So(errors.Is(tree.Validate(1), regression.ErrInvalidTree), ShouldBeTrue)
		})
	})

	Convey("Given malformed trees", t, func() {
		Convey("When arrays differ in length", func() {
			bad := stump(0, 0, 1, 2)
			bad.Weight = bad.Weight[:2]
			So(errors.Is(bad.Validate(1), regression.ErrInvalidTree), ShouldBeTrue)
		})

		Convey("When a node has a single child", func() {
			bad := stump(0, 0, 1, 2)
			bad.ChildrenRight[0] = -1
			So(errors.Is(bad.Validate(1), regression.ErrInvalidTree), ShouldBeTrue)
		})

		Convey("When a node weight is zero", func() {
			bad := stump(0, 0, 1, 2)
			bad.Weight[2] = 0
			So(errors.Is(bad.Validate(1), regression.ErrInvalidTree), ShouldBeTrue)
		})

		Convey("When there are no nodes", func() {
			So(errors.Is((&regression.Tree{}).Validate(1), regression.ErrInvalidTree), ShouldBeTrue)
		})
	})
}

func TestForest(t *testing.T) {
	Convey("Given a forest of two stumps", t, func() {
		forest, err := regression.NewForest([]*regression.Tree{
			stump(0, 0.5, 10, 20),
			stump(1, 0.5, 0, 100),
		}, 2)
		So(err, ShouldBeNil)

		Convey("When predicting a batch", func() {
			X := mat.NewDense(3, 2, []float64{
				0, 0,
				1, 0,
				1, 1,
			})
			preds, err := forest.Predict(X)

			Convey("Then it should average tree outputs per row in order", func() {
				So(err, ShouldBeNil)
				So(preds, ShouldResemble, []float64{5, 10, 60})
				So(forest.Kind(), ShouldEqual, regression.KindRandomForest)
				So(forest.Scale(), ShouldEqual, 0.5)
			})
		})

		Convey("When the matrix width is wrong", func() {
			_, err := forest.Predict(mat.NewDense(1, 3, nil))
			So(errors.Is(err, regression.ErrFeatureMismatch), ShouldBeTrue)
		})
	})

	Convey("Given an empty forest", t, func() {
		_, err := regression.NewForest(nil, 2)
		So(errors.Is(err, regression.ErrInvalidModel), ShouldBeTrue)
	})
}

func TestBoosted(t *testing.T) {
	Convey("Given a boosted ensemble", t, func() {
		b, err := regression.NewBoosted([]*regression.Tree{stump(0, 0.5, -1, 1), stump(0, 0.5, -2, 2)}, 1, 0.5, 100)
		So(err, ShouldBeNil)

		Convey("Then it should add scaled tree outputs to the init value", func() {
			preds, err := b.Predict(mat.NewDense(2, 1, []float64{0, 1}))
			So(err, ShouldBeNil)
			So(preds, ShouldResemble, []float64{98.5, 101.5})
		})

		Convey("And a non-positive learning rate should be rejected", func() {
			_, err := regression.NewBoosted([]*regression.Tree{stump(0, 0.5, -1, 1)}, 1, 0, 0)
			So(errors.Is(err, regression.ErrInvalidModel), ShouldBeTrue)
		})
	})
}

func TestLinear(t *testing.T) {
	Convey("Given a linear model", t, func() {
		l, err := regression.NewLinear([]float64{2, -1}, 10)
		So(err, ShouldBeNil)

		Convey("Then it should compute intercept plus dot product", func() {
			preds, err := l.Predict(mat.NewDense(2, 2, []float64{1, 1, 3, 0}))
			So(err, ShouldBeNil)
			So(preds, ShouldResemble, []float64{11, 16})
			coef, b := l.Coefficients()
			So(coef, ShouldResemble, []float64{2, -1})
			So(b, ShouldEqual, 10)
		})

		Convey("And an empty coefficient vector should be rejected", func() {
			_, err := regression.NewLinear(nil, 0)
			So(errors.Is(err, regression.ErrInvalidModel), ShouldBeTrue)
		})
	})
}
