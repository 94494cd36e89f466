package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/salary-insight/internal/domain/attribution"
	"github.com/okian/salary-insight/internal/domain/insight"
	"github.com/okian/salary-insight/internal/domain/model"
	"github.com/okian/salary-insight/internal/domain/pipeline"
	"github.com/okian/salary-insight/internal/domain/preprocess"
	"github.com/okian/salary-insight/internal/domain/regression"
	"github.com/okian/salary-insight/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Encoded layout: 0-2 position, 3-5 work mode, 6 score, 7 attendance,
// 8 projects, 9 years of service.
func newTransformer() *preprocess.ColumnTransformer {
	ct, err := preprocess.New([]preprocess.Step{
		{
			Name:    "cat",
			Kind:    preprocess.KindOneHot,
			Columns: []string{"Jabatan/Posisi", "Lokasi Kerja"},
			Categories: [][]string{
				{"Manager", "Staff", "Supervisor"},
				{"Hybrid", "Onsite", "Remote"},
			},
		},
		{
			Name:    "num",
			Kind:    preprocess.KindStandardScaler,
			Columns: []string{"Skor Kinerja", "Kehadiran Digital", "Jumlah Proyek Selesai", "Masa Kerja"},
			Mean:    []float64{3, 20, 10, 5},
			Scale:   []float64{1, 2, 5, 3},
		},
	})
	So(err, ShouldBeNil)
	return ct
}

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

func newForest() *regression.Forest {
	f, err := regression.NewForest([]*regression.Tree{
		stump(0, 0.5, 5_000_000, 9_000_000), // Manager
		stump(5, 0.5, 6_000_000, 7_000_000), // Remote
		stump(6, 0, 5_000_000, 8_000_000),   // score
		stump(9, 0, 5_500_000, 7_500_000),   // years of service
	}, 10)
	So(err, ShouldBeNil)
	return f
}

func manager() model.RawRecord {
	return model.RawRecord{
		"job_position":      "Manager",
		"work_mode":         "Remote",
		"performance_score": 4,
		"attendance_count":  20,
		"project_completed": 10,
		"years_of_service":  8,
	}
}

func staff() model.RawRecord {
	return model.RawRecord{
		"job_position":      "Staff",
		"work_mode":         "Onsite",
		"performance_score": 2,
		"attendance_count":  18,
		"project_completed": 4,
		"years_of_service":  2,
	}
}

func TestNew(t *testing.T) {
	Convey("Given mismatched capabilities", t, func() {
		ct := newTransformer()
		lin, _ := regression.NewLinear([]float64{1, 2}, 0)

		Convey("When the model width differs from the encoded width", func() {
			_, err := pipeline.New(ct, lin)
			So(errors.Is(err, pipeline.ErrInvalidPipeline), ShouldBeTrue)
		})

		Convey("When a capability is missing", func() {
			_, err := pipeline.New(nil, lin)
			So(errors.Is(err, pipeline.ErrInvalidPipeline), ShouldBeTrue)
		})
	})
}

func TestInsight(t *testing.T) {
	Convey("Given a forest pipeline and a complete record", t, func() {
		p, err := pipeline.New(newTransformer(), newForest())
		So(err, ShouldBeNil)

		method, err := p.Explainer()
		So(err, ShouldBeNil)
		So(method, ShouldEqual, attribution.AlgorithmTree)

		res, err := p.Insight(context.Background(), manager())
		So(err, ShouldBeNil)

		Convey("Then the prediction should be the forest mean", func() {
			So(res.Status, ShouldEqual, types.StatusSuccess)
			So(res.PredictedSalary, ShouldEqual, 7_875_000)
		})

		Convey("Then there should be one entry per base feature summing to 100", func() {
			So(res.FeatureInfluence, ShouldHaveLength, 6)
			total := 0.0
			for _, r := range res.FeatureInfluence {
				total += r.InfluencePercent
			}
			So(total, ShouldAlmostEqual, 100, 1e-6)
		})

		Convey("Then entries should be ranked by influence with stable ties", func() {
			got := make([]string, len(res.FeatureInfluence))
			for i, r := range res.FeatureInfluence {
				got[i] = r.Feature
			}
			So(got, ShouldResemble, []string{
				"Jabatan/Posisi", "Skor Kinerja", "Masa Kerja", "Lokasi Kerja",
				"Kehadiran Digital", "Jumlah Proyek Selesai",
			})
			So(res.FeatureInfluence[0].InfluencePercent, ShouldAlmostEqual, 40, 1e-9)
			So(res.FeatureInfluence[1].InfluencePercent, ShouldAlmostEqual, 30, 1e-9)
			So(res.FeatureInfluence[2].InfluencePercent, ShouldAlmostEqual, 20, 1e-9)
			So(res.FeatureInfluence[3].InfluencePercent, ShouldAlmostEqual, 10, 1e-9)
			So(res.FeatureInfluence[4].InfluencePercent, ShouldEqual, 0)
		})

		Convey("Then values and sentences should come from the raw request", func() {
			So(res.FeatureInfluence[0].Value, ShouldEqual, "Manager")
			So(res.FeatureInfluence[0].Description, ShouldEqual, "Jabatan Manager memengaruhi gaji sebesar 40.0%.")
			So(res.FeatureInfluence[2].Description, ShouldEqual, "Masa kerja 8 tahun berpengaruh sekitar 20.0%.")
		})
	})

	Convey("Given an English pipeline", t, func() {
		p, err := pipeline.New(newTransformer(), newForest(), pipeline.WithLocale(insight.LocaleEN))
		So(err, ShouldBeNil)
		So(p.Locale(), ShouldEqual, insight.LocaleEN)

		res, err := p.Insight(context.Background(), manager())
		So(err, ShouldBeNil)
		So(res.FeatureInfluence[3].Description, ShouldEqual, "Work mode Remote contributes about 10.0%.")
	})

	Convey("Given a record with an unseen category", t, func() {
		p, _ := pipeline.New(newTransformer(), newForest())
		raw := manager()
		raw["job_position"] = "CEO"

		_, err := p.Insight(context.Background(), raw)

		Convey("Then a transformation error should carry the cause", func() {
			So(errors.Is(err, pipeline.ErrTransformation), ShouldBeTrue)
			So(errors.Is(err, preprocess.ErrUnknownCategory), ShouldBeTrue)
			So(pipeline.KindOf(err), ShouldEqual, pipeline.KindTransformation)
			So(err.Error(), ShouldContainSubstring, "['CEO']")
		})
	})

	Convey("Given a null record", t, func() {
		p, _ := pipeline.New(newTransformer(), newForest())
		_, err := p.Insight(context.Background(), nil)
		So(errors.Is(err, pipeline.ErrMapping), ShouldBeTrue)
		So(pipeline.KindOf(err), ShouldEqual, pipeline.KindMapping)
	})

	Convey("Given a background that does not fit the model", t, func() {
		p, err := pipeline.New(newTransformer(), newForest(),
			pipeline.WithAlgorithm(attribution.AlgorithmPermutation),
			pipeline.WithBackground([]float64{1, 2, 3}),
		)
		So(err, ShouldBeNil)

		_, err = p.Insight(context.Background(), manager())

		Convey("Then an attribution error should be returned", func() {
			So(errors.Is(err, pipeline.ErrAttribution), ShouldBeTrue)
			So(errors.Is(err, attribution.ErrBackgroundMismatch), ShouldBeTrue)
			_, xerr := p.Explainer()
			So(xerr, ShouldNotBeNil)
		})
	})
}

func TestInsightLinear(t *testing.T) {
	Convey("Given a linear pipeline", t, func() {
		coef := []float64{3_000_000, 0, 0, 0, 0, 500_000, 1_000_000, 0, 0, 0}
		lin, err := regression.NewLinear(coef, 5_000_000)
		So(err, ShouldBeNil)
		p, err := pipeline.New(newTransformer(), lin)
		So(err, ShouldBeNil)

		res, err := p.Insight(context.Background(), manager())
		So(err, ShouldBeNil)

		Convey("Then attributions should follow the coefficients", func() {
			So(res.PredictedSalary, ShouldEqual, 9_500_000)
			So(res.FeatureInfluence[0].Feature, ShouldEqual, "Jabatan/Posisi")
			So(res.FeatureInfluence[0].InfluencePercent, ShouldAlmostEqual, 66.67, 1e-9)
			So(res.FeatureInfluence[1].Feature, ShouldEqual, "Skor Kinerja")
			So(res.FeatureInfluence[2].Feature, ShouldEqual, "Lokasi Kerja")
		})
	})
}

func TestPredict(t *testing.T) {
	Convey("Given a forest pipeline", t, func() {
		p, err := pipeline.New(newTransformer(), newForest(), pipeline.WithMaxBatchSize(3))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When predicting a batch of two", func() {
			preds, err := p.Predict(ctx, []model.RawRecord{manager(), staff()})
			So(err, ShouldBeNil)

			Convey("Then predictions should be aligned with input order", func() {
				So(preds, ShouldResemble, []float64{7_875_000, 5_375_000})
			})
		})

		Convey("When the batch is empty", func() {
			_, err := p.Predict(ctx, nil)
			So(errors.Is(err, pipeline.ErrTransformation), ShouldBeTrue)
			So(errors.Is(err, preprocess.ErrEmptyBatch), ShouldBeTrue)
		})

		Convey("When the batch exceeds the limit", func() {
			_, err := p.Predict(ctx, []model.RawRecord{manager(), staff(), manager(), staff()})
			So(errors.Is(err, pipeline.ErrTransformation), ShouldBeTrue)
			So(errors.Is(err, pipeline.ErrBatchTooLarge), ShouldBeTrue)
		})

		Convey("When a column is missing from every record", func() {
			raw := manager()
			delete(raw, "years_of_service")
			_, err := p.Predict(ctx, []model.RawRecord{raw})
			So(errors.Is(err, preprocess.ErrMissingColumn), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "'Masa Kerja'")
		})

		Convey("When one record has an unseen category", func() {
			bad := staff()
			bad["work_mode"] = "Moon"
			_, err := p.Predict(ctx, []model.RawRecord{manager(), bad})
			So(pipeline.KindOf(err), ShouldEqual, pipeline.KindTransformation)
		})
	})

	Convey("Given a linear pipeline with fractional coefficients", t, func() {
		coef := make([]float64, 10)
		coef[6] = 1000.3333
		lin, _ := regression.NewLinear(coef, 5_000_000.005)
		p, err := pipeline.New(newTransformer(), lin)
		So(err, ShouldBeNil)

		low := manager()
		high := manager()
		high["performance_score"] = 5

		preds, err := p.Predict(context.Background(), []model.RawRecord{low, high})
		So(err, ShouldBeNil)

		Convey("Then predictions should be rounded to two decimals", func() {
			So(preds, ShouldHaveLength, 2)
			So(preds[0], ShouldEqual, 5_001_000.34)
			So(preds[1], ShouldEqual, 5_002_000.67)
		})
	})
}

func TestKindOf(t *testing.T) {
	Convey("Given errors outside the pipeline", t, func() {
		So(pipeline.KindOf(errors.New("boom")), ShouldEqual, pipeline.KindUnknown)
		So(pipeline.KindOf(nil), ShouldEqual, pipeline.KindUnknown)
	})
}
