package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "salary")
				So(manager.subsystem, ShouldEqual, "insight")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.predictions.Inc()

			Convey("Then metric names and labels should follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_predictions_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When options carry empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "salary")
				So(manager.subsystem, ShouldEqual, "insight")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.constLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording a prediction", func() {
			before := testutil.ToFloat64(globalManager.recordsPredicted)
			calls := testutil.ToFloat64(globalManager.predictions)
			RecordPrediction(3)

			Convey("Then the request and record counters should advance", func() {
				So(testutil.ToFloat64(globalManager.recordsPredicted)-before, ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.predictions)-calls, ShouldEqual, 1)
			})
		})

		Convey("When recording an insight", func() {
			before := testutil.ToFloat64(globalManager.topFeature.WithLabelValues("Jabatan/Posisi"))
			RecordInsight("Jabatan/Posisi")
			RecordInsight("")

			Convey("Then only named top features should be counted", func() {
				So(testutil.ToFloat64(globalManager.topFeature.WithLabelValues("Jabatan/Posisi"))-before, ShouldEqual, 1)
			})
		})

		Convey("When recording pipeline errors", func() {
			before := testutil.ToFloat64(globalManager.pipelineErrors.WithLabelValues("transformation"))
			RecordPipelineError("transformation")

			Convey("Then the kind counter should advance", func() {
				So(testutil.ToFloat64(globalManager.pipelineErrors.WithLabelValues("transformation"))-before, ShouldEqual, 1)
			})
		})

		Convey("When looking up the insight cache", func() {
			hits := testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("hit"))
			misses := testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("miss"))
			RecordInsightCacheLookup(true)
			RecordInsightCacheLookup(false)
			RecordInsightCacheLookup(false)

			Convey("Then hits and misses should be counted separately", func() {
				So(testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("hit"))-hits, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("miss"))-misses, ShouldEqual, 2)
			})
		})

		Convey("When publishing model info twice", func() {
			SetModelInfo("linear", "linear", 3)
			SetModelInfo("random_forest", "tree", 12)

			Convey("Then only the latest model should be reported", func() {
				So(testutil.CollectAndCount(globalManager.modelInfo), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.modelInfo.WithLabelValues("random_forest", "tree")), ShouldEqual, 12)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 12.5)
				RecordAuthFailure("/insight")
				RecordRateLimited("/predict")
				RecordErrorByEndpoint("/predict", "POST", "400")
				RecordStageLatency(StageTransform, 0.4)
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			before := testutil.ToFloat64(globalManager.insights)
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						RecordInsight("Skor Kinerja")
						RecordStageLatency(StageAttribute, float64(j))
						RecordHTTPRequest("/insight", "POST", "200")
					}
				}()
			}
			wg.Wait()

			Convey("Then no update should be lost", func() {
				So(testutil.ToFloat64(globalManager.insights)-before, ShouldEqual, 1000)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordPrediction(1)
		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)

		Convey("Then it should expose only service metrics", func() {
			So(len(families), ShouldBeGreaterThan, 0)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "salary_insight_"), ShouldBeTrue)
			}
		})
	})
}
