package artifact_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/salary-insight/internal/adapters/artifact"
	"github.com/okian/salary-insight/internal/domain/regression"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func TestLoadPreprocessor(t *testing.T) {
	Convey("Given the preprocessor artifact", t, func() {
		ct, err := artifact.LoadPreprocessor(filepath.Join("testdata", "preprocessor.json"))
		So(err, ShouldBeNil)

		Convey("Then it should expose the fitted layout", func() {
			So(ct.Width(), ShouldEqual, 10)
			So(ct.FeatureNamesOut()[0], ShouldEqual, "cat__Jabatan/Posisi_Manager")
			So(ct.FeatureNamesOut()[9], ShouldEqual, "num__Masa Kerja")
			So(ct.StepNames(), ShouldResemble, []string{"cat", "num"})
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := artifact.LoadPreprocessor(filepath.Join("testdata", "nope.json"))
		So(errors.Is(err, artifact.ErrRead), ShouldBeTrue)
	})

	Convey("Given non-verbose names", t, func() {
		ct, err := artifact.DecodePreprocessor(strings.NewReader(
			`{"verbose_feature_names_out":false,"steps":[{"name":"num","kind":"passthrough","columns":["Masa Kerja"]}]}`))
		So(err, ShouldBeNil)
		So(ct.FeatureNamesOut(), ShouldResemble, []string{"Masa Kerja"})
	})

	Convey("Given an unknown field", t, func() {
		_, err := artifact.DecodePreprocessor(strings.NewReader(`{"steps":[],"pipeline":"x"}`))
		So(errors.Is(err, artifact.ErrDecode), ShouldBeTrue)
	})
}

func TestLoadModel(t *testing.T) {
	Convey("Given the model artifacts", t, func() {
		x := mat.NewDense(1, 10, []float64{1, 0, 0, 0, 0, 1, 1, 0, 0, 1})

		Convey("When loading the random forest", func() {
			m, err := artifact.LoadModel(filepath.Join("testdata", "random_forest.json"))
			So(err, ShouldBeNil)
			So(m.Regressor.Kind(), ShouldEqual, regression.KindRandomForest)
			_, isTree := m.Regressor.(regression.TreeEnsemble)
			So(isTree, ShouldBeTrue)
			So(m.Background, ShouldBeNil)

			preds, err := m.Regressor.Predict(x)
			So(err, ShouldBeNil)
			So(preds[0], ShouldEqual, 7_875_000)
		})

		Convey("When loading the gradient boosting model", func() {
			m, err := artifact.LoadModel(filepath.Join("testdata", "gradient_boosting.json"))
			So(err, ShouldBeNil)
			So(m.Regressor.Kind(), ShouldEqual, regression.KindGradientBoosting)

			preds, err := m.Regressor.Predict(x)
			So(err, ShouldBeNil)
			So(preds[0], ShouldAlmostEqual, 6_200_000, 1e-6)
		})

		Convey("When loading the linear model", func() {
			m, err := artifact.LoadModel(filepath.Join("testdata", "linear.json"))
			So(err, ShouldBeNil)
			So(m.Regressor.NumFeatures(), ShouldEqual, 10)
			So(m.Background, ShouldHaveLength, 10)
		})
	})

	Convey("Given invalid model artifacts", t, func() {
		Convey("When the kind is unknown", func() {
			_, err := artifact.DecodeModel(strings.NewReader(`{"kind":"svm"}`))
			So(errors.Is(err, artifact.ErrUnsupportedKind), ShouldBeTrue)
		})

		Convey("When a tree is malformed", func() {
			_, err := artifact.DecodeModel(strings.NewReader(
				`{"kind":"random_forest","n_features":1,"trees":[{"children_left":[1],"children_right":[2],"feature":[0],"threshold":[0],"value":[1],"weight":[1]}]}`))
			So(errors.Is(err, regression.ErrInvalidTree), ShouldBeTrue)
		})

		Convey("When the background has the wrong width", func() {
			_, err := artifact.DecodeModel(strings.NewReader(`{"kind":"linear","coef":[1,2],"background":[0]}`))
			So(errors.Is(err, regression.ErrInvalidModel), ShouldBeTrue)
		})

		Convey("When the body is not JSON", func() {
			_, err := artifact.DecodeModel(strings.NewReader(`not json`))
			So(errors.Is(err, artifact.ErrDecode), ShouldBeTrue)
		})
	})
}
