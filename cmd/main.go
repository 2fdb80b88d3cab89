package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/fraudlens/internal/adapters/charts"
	"github.com/okian/fraudlens/internal/adapters/dataset"
	"github.com/okian/fraudlens/internal/adapters/http/api"
	"github.com/okian/fraudlens/internal/adapters/http/site"
	"github.com/okian/fraudlens/internal/adapters/http/swagger"
	"github.com/okian/fraudlens/internal/adapters/repository"
	"github.com/okian/fraudlens/internal/adapters/session"
	app "github.com/okian/fraudlens/internal/app"
	"github.com/okian/fraudlens/internal/config"
	"github.com/okian/fraudlens/pkg/logger"
	"github.com/okian/fraudlens/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("fraudlens: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// run loads configuration, serves until ctx is cancelled and shuts down.
func run(ctx context.Context) error {
	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Get()
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		log.Warn(ctx, "invalid log_format; keeping text", logger.String("log_format", cfg.LogFormat), logger.Error(err))
	}
	log = logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("model", cfg.ModelPath),
			logger.Float64("threshold", cfg.DecisionThreshold),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newHandler builds the service and registers every route. Nothing is read
// from disk until the first request needs it.
func newHandler(ctx context.Context, cfg *config.Config, log logger.Logger) http.Handler {
	store := repository.NewFileStore(cfg.ModelPath, dataset.Paths{
		TrainFeatures: cfg.TrainFeaturesPath,
		TrainLabels:   cfg.TrainLabelsPath,
		TestFeatures:  cfg.TestFeaturesPath,
		TestLabels:    cfg.TestLabelsPath,
	}, repository.WithLogger(log.Named("repository")))

	svc := app.New(store,
		app.WithLogger(log.Named("service")),
		app.WithThreshold(cfg.DecisionThreshold),
		app.WithCharts(charts.New(charts.WithSize(cfg.ChartWidthIn, cfg.ChartHeightIn))),
		app.WithSessionStore(session.NewInMemoryStore(
			session.WithMaxSize(cfg.MaxSessions),
			session.WithSizeObserver(metrics.UpdateActiveSessions),
		)),
	)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	site.New(svc, log.Named("site")).Register(ctx, mux)
	return mux
}
