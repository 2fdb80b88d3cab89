package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors should be registered", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordPrediction("fraud")

			Convey("Then names should carry the namespace and subsystem", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_predictions_total")
			})
		})

		Convey("When metrics are disabled", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(registry))

			Convey("Then nothing is registered and recorders are no-ops", func() {
				So(manager.Enabled(), ShouldBeFalse)
				So(func() {
					manager.RecordPrediction("fraud")
					manager.RecordEvaluation(10, 0.9, 3)
					manager.UpdateActiveSessions(4)
				}, ShouldNotPanic)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording predictions", func() {
			manager.RecordPrediction("fraud")
			manager.RecordPrediction("fraud")
			manager.RecordPrediction("not_fraud")
			manager.RecordPredictionError("predict_proba")

			Convey("Then counters should reflect the verdicts", func() {
				So(testutil.ToFloat64(manager.predictions.WithLabelValues("fraud")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.predictions.WithLabelValues("not_fraud")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.predictionErrors.WithLabelValues("predict_proba")), ShouldEqual, 1)
			})
		})

		Convey("When observing fraud probabilities", func() {
			Convey("Then values inside [0, 1] are accepted", func() {
				So(manager.RecordFraudProbability(0), ShouldBeNil)
				So(manager.RecordFraudProbability(0.73), ShouldBeNil)
				So(manager.RecordFraudProbability(1), ShouldBeNil)
			})

			Convey("Then values outside [0, 1] are rejected", func() {
				err := manager.RecordFraudProbability(1.2)
				So(errors.Is(err, ErrObserveFailed), ShouldBeTrue)
				err = manager.RecordFraudProbability(math.NaN())
				So(errors.Is(err, ErrObserveFailed), ShouldBeTrue)
			})
		})

		Convey("When recording an evaluation", func() {
			manager.RecordEvaluation(200, 0.87, 12.5)

			Convey("Then gauges should hold the last run", func() {
				So(testutil.ToFloat64(manager.evaluations), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.evaluationRows), ShouldEqual, 200)
				So(testutil.ToFloat64(manager.evaluationAUC), ShouldAlmostEqual, 0.87)
			})

			Convey("Then an undefined AUC leaves the gauge untouched", func() {
				manager.RecordEvaluation(50, math.NaN(), 2)
				So(testutil.ToFloat64(manager.evaluationAUC), ShouldAlmostEqual, 0.87)
				So(testutil.ToFloat64(manager.evaluationRows), ShouldEqual, 50)
			})
		})

		Convey("When recording shell activity", func() {
			manager.RecordNavTransition("home", "prediction")
			manager.UpdateActiveSessions(3)
			manager.RecordResourceLoad("model", "ok", 4)

			Convey("Then the matching series should be set", func() {
				So(testutil.ToFloat64(manager.navTransitions.WithLabelValues("home", "prediction")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.activeSessions), ShouldEqual, 3)
				So(testutil.ToFloat64(manager.resourceLoads.WithLabelValues("model", "ok")), ShouldEqual, 1)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When calling package-level recorders", func() {
			Convey("Then they should not panic", func() {
				So(func() {
					RecordPrediction("fraud")
					RecordPredictionError("assemble")
					RecordPredictionLatency(1.5)
					RecordEvaluation(10, 0.5, 2)
					RecordEvaluationError("load")
					RecordResourceLoad("split", "error", 1)
					RecordNavTransition("results", "home")
					UpdateActiveSessions(1)
					RecordHTTPRequest("/", "GET", "200")
					RecordHTTPRequestDuration("/", "GET", "200", 3)
					RecordErrorByType("scoring_failed", "medium")
					RecordErrorByEndpoint("/predict", "POST", "scoring_failed")
					RecordErrorLatency("scoring", "scoring_failed", 2)
				}, ShouldNotPanic)
				So(RecordFraudProbability(0.4), ShouldBeNil)
			})

			Convey("Then the custom registry should expose runtime gauges", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "fraudlens_console_system_goroutine_count")
			})
		})
	})
}
