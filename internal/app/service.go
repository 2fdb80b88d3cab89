// Package service provides the console's service container: it owns the
// resource store, the session store and the chart renderer, and exposes
// the operations the HTTP layer needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/okian/fraudlens/internal/adapters/charts"
	"github.com/okian/fraudlens/internal/adapters/repository"
	"github.com/okian/fraudlens/internal/adapters/session"
	"github.com/okian/fraudlens/internal/domain/artifact"
	"github.com/okian/fraudlens/internal/domain/evaluation"
	"github.com/okian/fraudlens/internal/domain/form"
	"github.com/okian/fraudlens/internal/domain/model"
	"github.com/okian/fraudlens/internal/domain/schema"
	"github.com/okian/fraudlens/internal/domain/scoring"
	"github.com/okian/fraudlens/internal/domain/shell"
	"github.com/okian/fraudlens/internal/domain/types"
	"github.com/okian/fraudlens/pkg/logger"
	"github.com/okian/fraudlens/pkg/metrics"
)

// Prediction error stages recorded before the scorer runs.
const (
	stageLoad    = "load"
	stageSchema  = "schema"
	stageCollect = "collect"
)

// console is everything derived from one loaded pipeline.
type console struct {
	pipeline *artifact.Pipeline
	schema   *schema.Schema
	form     *form.Form
	scorer   *scoring.PipelineScorer
}

// Service implements the dependencies of the API and the site.
type Service struct {
	store     repository.Store
	sessions  session.Store
	charts    *charts.Renderer
	threshold float64
	logger    logger.Logger
	now       func() time.Time
	startedAt time.Time

	mu  sync.Mutex
	cur *console
}

// New constructs a Service reading resources from store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		charts:    charts.New(),
		threshold: scoring.DefaultThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.sessions == nil {
		s.sessions = session.NewInMemoryStore(session.WithSizeObserver(metrics.UpdateActiveSessions))
	}
	s.startedAt = s.now()
	return s
}

// Threshold returns the decision threshold.
func (s *Service) Threshold() float64 { return s.threshold }

// console returns the schema, form and scorer for the loaded pipeline,
// deriving them once per pipeline.
func (s *Service) console(ctx context.Context) (*console, error) {
	p, err := s.store.Pipeline(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil && s.cur.pipeline == p {
		return s.cur, nil
	}

	sc, err := schema.Introspect(p)
	if err != nil {
		s.logger.Error(ctx, "schema introspection failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	c := &console{
		pipeline: p,
		schema:   sc,
		form:     form.Build(sc),
		scorer: scoring.New(p, sc.Columns,
			scoring.WithThreshold(s.threshold),
			scoring.WithLogger(s.logger.Named("scoring")),
		),
	}
	if len(c.form.Unhandled) > 0 {
		s.logger.Warn(ctx, "form has no control for some columns",
			logger.Any("columns", c.form.Unhandled))
	}
	s.cur = c
	return c, nil
}

// Schema returns the pipeline's input schema.
func (s *Service) Schema(ctx context.Context) (*schema.Schema, error) {
	c, err := s.console(ctx)
	if err != nil {
		return nil, err
	}
	return c.schema, nil
}

// Form returns the input form for the pipeline's schema.
func (s *Service) Form(ctx context.Context) (*form.Form, error) {
	c, err := s.console(ctx)
	if err != nil {
		return nil, err
	}
	return c.form, nil
}

// PredictValues scores a form submission.
func (s *Service) PredictValues(ctx context.Context, values url.Values) (scoring.Result, error) {
	return s.predict(ctx, func(f *form.Form) (model.Record, error) { return f.Collect(values) })
}

// PredictRecord scores a typed record, as sent by JSON clients.
func (s *Service) PredictRecord(ctx context.Context, rec model.Record) (scoring.Result, error) {
	return s.predict(ctx, func(f *form.Form) (model.Record, error) { return f.CollectRecord(rec) })
}

func (s *Service) predict(ctx context.Context, collect func(*form.Form) (model.Record, error)) (scoring.Result, error) {
	start := s.now()

	c, err := s.console(ctx)
	if err != nil {
		stage := stageLoad
		if errors.Is(err, ErrSchema) {
			stage = stageSchema
		}
		metrics.RecordPredictionError(stage)
		return scoring.Result{}, err
	}

	rec, err := collect(c.form)
	if err != nil {
		metrics.RecordPredictionError(stageCollect)
		return scoring.Result{}, err
	}

	res, err := c.scorer.Score(ctx, rec)
	if err != nil {
		stage := scoring.StagePredict
		var se *scoring.Error
		if errors.As(err, &se) {
			stage = se.Stage
		}
		metrics.RecordPredictionError(stage)
		return scoring.Result{}, err
	}

	metrics.RecordPrediction(string(res.Verdict))
	metrics.RecordPredictionLatency(msSince(s.now(), start))
	if err := metrics.RecordFraudProbability(res.Probability); err != nil {
		s.logger.Warn(ctx, "fraud probability not observed", logger.Error(err))
	}
	return res, nil
}

// Evaluate scores the test split. It is computed fresh on every call.
func (s *Service) Evaluate(ctx context.Context) (*evaluation.Result, error) {
	start := s.now()

	p, err := s.store.Pipeline(ctx)
	if err != nil {
		metrics.RecordEvaluationError("load_model")
		return nil, err
	}
	split, err := s.store.Split(ctx)
	if err != nil {
		metrics.RecordEvaluationError("load_split")
		return nil, err
	}

	res, err := evaluation.Evaluate(ctx, p, split.Test.Features, split.Test.Labels)
	if err != nil {
		metrics.RecordEvaluationError("evaluate")
		s.logger.Error(ctx, "evaluation failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	elapsed := s.now().Sub(start)
	metrics.RecordEvaluation(res.Rows, res.ROC.AUC, msSince(s.now(), start))
	s.logger.Info(ctx, "test split evaluated",
		logger.Int("train_rows", split.Train.Len()),
		logger.Int("test_rows", res.Rows),
		logger.Float64("accuracy", res.Report.Accuracy),
		logger.Bool("roc_defined", res.ROC.Defined),
		logger.Duration("elapsed", elapsed),
	)
	return res, nil
}

// ROCChart evaluates the test split and renders its ROC curve as SVG.
func (s *Service) ROCChart(ctx context.Context) ([]byte, error) {
	res, err := s.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return charts.SVG(func(w io.Writer) error { return s.charts.ROC(w, res.ROC) })
}

// ConfusionChart evaluates the test split and renders its confusion
// matrix as SVG.
func (s *Service) ConfusionChart(ctx context.Context) ([]byte, error) {
	res, err := s.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return charts.SVG(func(w io.Writer) error { return s.charts.ConfusionMatrix(w, res.Confusion) })
}

// Session returns the session for id, starting a new one when id is
// unknown or empty.
func (s *Service) Session(ctx context.Context, id string) session.Session {
	if id != "" {
		if sess, ok := s.sessions.Get(ctx, id); ok {
			return sess
		}
	}
	sess := s.sessions.Create(ctx)
	s.logger.Debug(ctx, "session started", logger.String("session", sess.ID))
	return sess
}

// Navigate applies act to the session's view and stores the result.
// Returning home clears the last prediction.
func (s *Service) Navigate(ctx context.Context, sess session.Session, act shell.Action) (session.Session, error) {
	next, err := shell.Next(sess.View, act)
	if err != nil {
		return sess, err
	}
	metrics.RecordNavTransition(string(sess.View), string(next))

	sess.View = next
	if next == shell.Home {
		sess.Values = nil
		sess.Last = nil
	}
	sess.UpdatedAt = s.now()
	s.sessions.Save(ctx, sess)
	return sess, nil
}

// Remember stores the last prediction form submission and its result,
// which may be nil when scoring failed.
func (s *Service) Remember(ctx context.Context, sess session.Session, values url.Values, res *scoring.Result) session.Session {
	sess.Values = values
	sess.Last = res
	sess.UpdatedAt = s.now()
	s.sessions.Save(ctx, sess)
	return sess
}

// Stats reports resource load state and session usage.
func (s *Service) Stats() types.Stats {
	st := s.store.Status()
	return types.Stats{
		Model:     resourceState(st.Model),
		Split:     resourceState(st.Split),
		Sessions:  s.sessions.Len(),
		Threshold: s.threshold,
		Uptime:    s.Uptime().String(),
	}
}

// Uptime returns the time since the service was created.
func (s *Service) Uptime() time.Duration {
	return s.now().Sub(s.startedAt).Truncate(time.Second)
}

func resourceState(rs repository.ResourceStatus) types.ResourceState {
	out := types.ResourceState{Path: rs.Path, Loaded: rs.Loaded, LastError: rs.LastError}
	if rs.Loaded {
		out.LoadedAt = rs.LoadedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func msSince(now, start time.Time) float64 {
	return float64(now.Sub(start).Microseconds()) / 1000
}
