package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/okian/fraudlens/internal/config"
	"github.com/okian/fraudlens/internal/testutil"
	"github.com/okian/fraudlens/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func scenarioConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	paths := testutil.WriteSplit(t, dir, 80, 20)
	cfg := config.New(context.Background())
	cfg.ModelPath = testutil.WriteArtifact(t, dir, testutil.ScenarioDocument())
	cfg.TrainFeaturesPath = paths.TrainFeatures
	cfg.TrainLabelsPath = paths.TrainLabels
	cfg.TestFeaturesPath = paths.TestFeatures
	cfg.TestLabelsPath = paths.TestLabels
	return cfg
}

func TestConfigurationFromEnv(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("FRAUDLENS_ADDR", ":9090")
		_ = os.Setenv("FRAUDLENS_DECISION_THRESHOLD", "0.7")
		defer func() {
			_ = os.Unsetenv("FRAUDLENS_ADDR")
			_ = os.Unsetenv("FRAUDLENS_DECISION_THRESHOLD")
		}()

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.DecisionThreshold, convey.ShouldEqual, 0.7)
		})
	})
}

func TestHandlerRoutes(t *testing.T) {
	convey.Convey("Given the assembled handler", t, func() {
		h := newHandler(context.Background(), scenarioConfig(t), logger.Get())

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then every surface is mounted", func() {
			convey.So(get("/").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/metrics").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/static/style.css").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then the API scores against the configured artifact", func() {
			body := `{"record":{"amount":200,"age":30,"risk_tier":"high","is_weekend":"no","Transaction_Hour":14}}`
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
			h.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"verdict":"fraud"`)
		})

		convey.Convey("Then the evaluation covers the configured split", func() {
			w := get("/api/v1/evaluation")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"rows":100`)
		})
	})
}

func TestRunShutsDown(t *testing.T) {
	convey.Convey("Given a listen address and a cancelled context", t, func() {
		_ = os.Setenv("FRAUDLENS_ADDR", "127.0.0.1:0")
		defer func() { _ = os.Unsetenv("FRAUDLENS_ADDR") }()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		convey.Convey("Then run returns cleanly", func() {
			convey.So(run(ctx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given an invalid configuration", t, func() {
		_ = os.Setenv("FRAUDLENS_DECISION_THRESHOLD", "2")
		defer func() { _ = os.Unsetenv("FRAUDLENS_DECISION_THRESHOLD") }()

		convey.Convey("Then run fails before serving", func() {
			convey.So(run(context.Background()), convey.ShouldNotBeNil)
		})
	})
}
