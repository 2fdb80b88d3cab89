package service_test

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/fraudlens/internal/adapters/dataset"
	"github.com/okian/fraudlens/internal/adapters/repository"
	"github.com/okian/fraudlens/internal/adapters/session"
	service "github.com/okian/fraudlens/internal/app"
	"github.com/okian/fraudlens/internal/domain/form"
	"github.com/okian/fraudlens/internal/domain/scoring"
	"github.com/okian/fraudlens/internal/domain/shell"
	"github.com/okian/fraudlens/internal/testutil"
	"github.com/okian/fraudlens/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newScenarioService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	dir := t.TempDir()
	modelPath := testutil.WriteArtifact(t, dir, testutil.ScenarioDocument())
	paths := testutil.WriteSplit(t, dir, 80, 20)
	return service.New(repository.NewFileStore(modelPath, paths), opts...)
}

func scenarioValues() url.Values {
	return url.Values{
		"amount":           {"100"},
		"age":              {"30"},
		"risk_tier":        {"medium"},
		"is_weekend":       {"no"},
		"Transaction_Hour": {"14"},
	}
}

func TestServiceSchemaAndForm(t *testing.T) {
	Convey("Given a service over the scenario artifact", t, func() {
		ctx := context.Background()
		svc := newScenarioService(t)

		Convey("When the schema is requested", func() {
			sc, err := svc.Schema(ctx)

			Convey("Then columns are partitioned", func() {
				So(err, ShouldBeNil)
				So(sc.Columns, ShouldResemble, testutil.ScenarioColumns)
				So(sc.Numeric, ShouldResemble, []string{"amount", "age"})
				So(sc.Remainder, ShouldResemble, []string{"Transaction_Hour"})
			})
		})

		Convey("When the form is requested twice", func() {
			f1, err1 := svc.Form(ctx)
			f2, err2 := svc.Form(ctx)

			Convey("Then it is derived once", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(f1, ShouldPointTo, f2)
				So(len(f1.Fields), ShouldEqual, 5)
				So(f1.Unhandled, ShouldBeEmpty)
			})
		})
	})
}

func TestServicePredict(t *testing.T) {
	Convey("Given a service over the scenario artifact", t, func() {
		ctx := context.Background()
		svc := newScenarioService(t)

		Convey("When the reference submission is scored", func() {
			res, err := svc.PredictValues(ctx, scenarioValues())

			Convey("Then it is legitimate with a low probability", func() {
				So(err, ShouldBeNil)
				So(res.Label, ShouldEqual, 0)
				So(res.Probability, ShouldAlmostEqual, 0.1301, 0.0001)
				So(res.Verdict, ShouldEqual, scoring.VerdictLegitimate)
				So(res.Risky(), ShouldBeFalse)
				So(res.ID, ShouldNotBeEmpty)
			})
		})

		Convey("When a high-risk record is scored", func() {
			rec := testutil.ScenarioRecord()
			rec["amount"] = 200.0
			rec["risk_tier"] = "high"
			res, err := svc.PredictRecord(ctx, rec)

			Convey("Then it is flagged", func() {
				So(err, ShouldBeNil)
				So(res.Label, ShouldEqual, 1)
				So(res.Probability, ShouldAlmostEqual, 0.5622, 0.0001)
				So(res.Verdict, ShouldEqual, scoring.VerdictFraud)
				So(res.Risky(), ShouldBeTrue)
			})
		})

		Convey("When a submission has bad fields", func() {
			values := scenarioValues()
			values.Set("amount", "lots")
			values.Del("risk_tier")
			_, err := svc.PredictValues(ctx, values)

			Convey("Then every bad field is reported", func() {
				So(errors.Is(err, form.ErrInvalidInput), ShouldBeTrue)
				var verr *form.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Fields, ShouldContainKey, "amount")
				So(verr.Fields, ShouldContainKey, "risk_tier")
			})
		})
	})

	Convey("Given a service with a high threshold", t, func() {
		ctx := context.Background()
		svc := newScenarioService(t, service.WithThreshold(0.9))

		Convey("When a record the model labels fraud is scored", func() {
			rec := testutil.ScenarioRecord()
			rec["amount"] = 200.0
			rec["risk_tier"] = "high"
			res, err := svc.PredictRecord(ctx, rec)

			Convey("Then the verdict follows the threshold while the label is kept", func() {
				So(err, ShouldBeNil)
				So(svc.Threshold(), ShouldEqual, 0.9)
				So(res.Label, ShouldEqual, 1)
				So(res.Verdict, ShouldEqual, scoring.VerdictLegitimate)
				So(res.Risky(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service whose artifact is missing", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		svc := service.New(repository.NewFileStore(filepath.Join(dir, "none.json"), dataset.Paths{}))

		Convey("Then schema, form and prediction report the resource as unavailable", func() {
			_, err := svc.Schema(ctx)
			So(errors.Is(err, repository.ErrResourceUnavailable), ShouldBeTrue)
			_, err = svc.Form(ctx)
			So(errors.Is(err, repository.ErrResourceUnavailable), ShouldBeTrue)
			_, err = svc.PredictValues(ctx, scenarioValues())
			So(errors.Is(err, repository.ErrResourceUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a service whose artifact has no feature names", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		doc := testutil.ScenarioDocument()
		doc.Steps[0].ColumnTransformer.FeatureNamesIn = nil
		modelPath := testutil.WriteArtifact(t, dir, doc)
		svc := service.New(repository.NewFileStore(modelPath, dataset.Paths{}))

		Convey("Then the schema error is fatal", func() {
			_, err := svc.Form(ctx)
			So(errors.Is(err, service.ErrSchema), ShouldBeTrue)
		})
	})
}

func TestServiceEvaluate(t *testing.T) {
	Convey("Given a service over the scenario split", t, func() {
		ctx := context.Background()
		svc := newScenarioService(t)

		Convey("When the test split is evaluated", func() {
			res, err := svc.Evaluate(ctx)

			Convey("Then the report matches the split", func() {
				So(err, ShouldBeNil)
				So(res.Rows, ShouldEqual, 100)
				So(res.Confusion.RowSums(), ShouldResemble, []int{80, 20})
				So(res.Confusion.Counts(), ShouldResemble, [2][2]int{{64, 16}, {4, 16}})
				So(res.ROC.Defined, ShouldBeTrue)
				So(res.ROC.AUC, ShouldAlmostEqual, 0.8, 1e-9)
			})
		})

		Convey("When the charts are rendered", func() {
			roc, err1 := svc.ROCChart(ctx)
			cm, err2 := svc.ConfusionChart(ctx)

			Convey("Then both are SVG documents", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(string(roc), ShouldContainSubstring, "<svg")
				So(string(roc), ShouldContainSubstring, "AUC = 0.80")
				So(string(cm), ShouldContainSubstring, "<svg")
			})
		})

		Convey("When stats are read after the loads", func() {
			_, err := svc.Evaluate(ctx)
			So(err, ShouldBeNil)
			st := svc.Stats()

			Convey("Then both resources are reported loaded", func() {
				So(st.Model.Loaded, ShouldBeTrue)
				So(st.Split.Loaded, ShouldBeTrue)
				So(st.Model.LoadedAt, ShouldNotBeEmpty)
				So(st.Threshold, ShouldEqual, scoring.DefaultThreshold)
			})
		})
	})

	Convey("Given a service whose test labels are missing", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		modelPath := testutil.WriteArtifact(t, dir, testutil.ScenarioDocument())
		paths := testutil.WriteSplit(t, dir, 80, 20)
		So(os.Remove(paths.TestLabels), ShouldBeNil)
		svc := service.New(repository.NewFileStore(modelPath, paths))

		Convey("Then evaluation fails without partial output", func() {
			res, err := svc.Evaluate(ctx)
			So(res, ShouldBeNil)
			So(errors.Is(err, repository.ErrResourceUnavailable), ShouldBeTrue)
			So(svc.Stats().Split.LastError, ShouldNotBeEmpty)
		})
	})
}

func TestServiceSessions(t *testing.T) {
	Convey("Given a service with a small session store", t, func() {
		ctx := context.Background()
		store := session.NewInMemoryStore(session.WithMaxSize(2))
		svc := newScenarioService(t, service.WithSessionStore(store))

		Convey("When an unknown id is looked up", func() {
			sess := svc.Session(ctx, "nope")

			Convey("Then a new session starts at home", func() {
				So(sess.ID, ShouldNotEqual, "nope")
				So(sess.View, ShouldEqual, shell.Home)
				So(store.Len(), ShouldEqual, 1)
			})
		})

		Convey("When navigating through the views", func() {
			sess := svc.Session(ctx, "")
			sess, err := svc.Navigate(ctx, sess, shell.MakePrediction)
			So(err, ShouldBeNil)
			So(sess.View, ShouldEqual, shell.Prediction)

			res, err := svc.PredictValues(ctx, scenarioValues())
			So(err, ShouldBeNil)
			sess = svc.Remember(ctx, sess, scenarioValues(), &res)

			Convey("Then the session keeps the view and last prediction", func() {
				got := svc.Session(ctx, sess.ID)
				So(got.View, ShouldEqual, shell.Prediction)
				So(got.Last, ShouldNotBeNil)
				So(got.Values.Get("risk_tier"), ShouldEqual, "medium")
			})

			Convey("Then an action not offered by the view is rejected", func() {
				_, err := svc.Navigate(ctx, sess, shell.ViewResults)
				So(errors.Is(err, shell.ErrInvalidTransition), ShouldBeTrue)
				So(svc.Session(ctx, sess.ID).View, ShouldEqual, shell.Prediction)
			})

			Convey("Then returning home clears the prediction", func() {
				sess, err := svc.Navigate(ctx, sess, shell.ReturnHome)
				So(err, ShouldBeNil)
				So(sess.View, ShouldEqual, shell.Home)
				So(svc.Session(ctx, sess.ID).Last, ShouldBeNil)
			})
		})

		Convey("When more browsers arrive than the store holds", func() {
			first := svc.Session(ctx, "")
			svc.Session(ctx, "")
			svc.Session(ctx, "")

			Convey("Then the oldest session is dropped", func() {
				So(store.Len(), ShouldEqual, 2)
				So(svc.Stats().Sessions, ShouldEqual, 2)
				So(svc.Session(ctx, first.ID).ID, ShouldNotEqual, first.ID)
			})
		})
	})
}
