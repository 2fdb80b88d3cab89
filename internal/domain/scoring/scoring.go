// Package scoring turns a collected record into a fraud verdict.
package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/fraudlens/internal/domain/model"
	"github.com/okian/fraudlens/pkg/logger"
)

// DefaultThreshold is the fraud probability at or above which a
// transaction is flagged when no threshold is configured.
const DefaultThreshold = 0.5

// Verdict is the user-facing classification.
type Verdict string

// Verdicts.
const (
	VerdictFraud      Verdict = "fraud"
	VerdictLegitimate Verdict = "legitimate"
)

// Stages reported with scoring errors.
const (
	StageAssemble     = "assemble"
	StagePredict      = "predict"
	StagePredictProba = "predict_proba"
	StageValidate     = "validate"
)

// Classifier is the part of a fitted pipeline the scorer calls.
type Classifier interface {
	Predict(f model.Frame) ([]int, error)
	PredictProba(f model.Frame) ([][2]float64, error)
}

// Result is the outcome of scoring one record.
type Result struct {
	ID          string  `json:"id"`
	Label       int     `json:"predicted_label"`
	Probability float64 `json:"fraud_probability"`
	Verdict     Verdict `json:"verdict"`
	Threshold   float64 `json:"threshold"`
}

// Risky reports whether the model's own label is the positive class.
func (r Result) Risky() bool { return r.Label == model.Fraud }

// Scorer scores one record.
type Scorer interface {
	Score(ctx context.Context, rec model.Record) (Result, error)
}

// Option applies a configuration option to the PipelineScorer.
type Option func(*PipelineScorer)

// WithThreshold sets the decision threshold. Values outside (0, 1] are ignored.
func WithThreshold(t float64) Option {
	return func(s *PipelineScorer) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *PipelineScorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the uuid result ids, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *PipelineScorer) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// PipelineScorer scores records against a fitted classifier. It holds no
// per-request state and is safe for concurrent use.
type PipelineScorer struct {
	clf       Classifier
	columns   []string
	threshold float64
	logger    logger.Logger
	newID     func() string
}

// New creates a scorer for clf, which expects columns in the given order.
func New(clf Classifier, columns []string, opts ...Option) *PipelineScorer {
	s := &PipelineScorer{
		clf:       clf,
		columns:   append([]string(nil), columns...),
		threshold: DefaultThreshold,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the decision threshold in use.
func (s *PipelineScorer) Threshold() float64 { return s.threshold }

// Assemble lays rec out as a one-row frame in columns order. Keys not in
// columns are dropped.
func Assemble(rec model.Record, columns []string) (model.Frame, error) {
	row := make([]any, len(columns))
	for i, c := range columns {
		v, ok := rec[c]
		if !ok || v == nil {
			return model.Frame{}, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
		row[i] = v
	}
	return model.Frame{Columns: columns, Rows: [][]any{row}}, nil
}

// Score assembles rec, runs predict and predict_proba once each and
// classifies the probability against the threshold. Panics raised by the
// classifier are returned as ErrScoringFailed.
func (s *PipelineScorer) Score(ctx context.Context, rec model.Record) (res Result, err error) {
	start := time.Now()
	id := s.newID()

	defer func() {
		if r := recover(); r != nil {
			err = &Error{Stage: StagePredict, Err: fmt.Errorf("%w: panic: %v", ErrScoringFailed, r)}
		}
		if err != nil && s.logger != nil {
			s.logger.Warn(ctx, "scoring failed", logger.String("id", id), logger.Error(err))
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	frame, err := Assemble(rec, s.columns)
	if err != nil {
		return Result{}, &Error{Stage: StageAssemble, Err: err}
	}

	labels, err := s.clf.Predict(frame)
	if err != nil {
		return Result{}, &Error{Stage: StagePredict, Err: fmt.Errorf("%w: %w", ErrScoringFailed, err)}
	}
	proba, err := s.clf.PredictProba(frame)
	if err != nil {
		return Result{}, &Error{Stage: StagePredictProba, Err: fmt.Errorf("%w: %w", ErrScoringFailed, err)}
	}
	if len(labels) != 1 || len(proba) != 1 {
		return Result{}, &Error{Stage: StageValidate, Err: fmt.Errorf("%w: %d labels, %d probability rows for one record",
			ErrInvalidOutput, len(labels), len(proba))}
	}

	label, p := labels[0], proba[0][1]
	if label != model.Legitimate && label != model.Fraud {
		return Result{}, &Error{Stage: StageValidate, Err: fmt.Errorf("%w: label %d", ErrInvalidOutput, label)}
	}
	if !(p >= 0 && p <= 1) {
		return Result{}, &Error{Stage: StageValidate, Err: fmt.Errorf("%w: probability %v", ErrInvalidOutput, p)}
	}

	res = Result{
		ID:          id,
		Label:       label,
		Probability: p,
		Verdict:     s.classify(p),
		Threshold:   s.threshold,
	}
	if s.logger != nil {
		s.logger.Info(ctx, "transaction scored",
			logger.String("id", id),
			logger.Int("label", label),
			logger.Float64("probability", p),
			logger.String("verdict", string(res.Verdict)),
			logger.Duration("latency", time.Since(start)),
		)
	}
	return res, nil
}

func (s *PipelineScorer) classify(p float64) Verdict {
	if p >= s.threshold {
		return VerdictFraud
	}
	return VerdictLegitimate
}
