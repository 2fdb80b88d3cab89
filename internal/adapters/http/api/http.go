// Package api declares the JSON HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/fraudlens/internal/adapters/repository"
	"github.com/okian/fraudlens/internal/domain/evaluation"
	"github.com/okian/fraudlens/internal/domain/form"
	"github.com/okian/fraudlens/internal/domain/model"
	"github.com/okian/fraudlens/internal/domain/schema"
	"github.com/okian/fraudlens/internal/domain/scoring"
)

// Error codes returned in the JSON envelope.
const (
	codeBadRequest          = "bad_request"
	codeMethodNotAllowed    = "method_not_allowed"
	codeResourceUnavailable = "resource_unavailable"
	codeSchemaError         = "schema_error"
	codeInvalidRecord       = "invalid_record"
	codeScoringFailed       = "scoring_failed"
	codeEvaluationError     = "evaluation_error"
	codeInternal            = "internal_error"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Schema(ctx context.Context) (*schema.Schema, error)
	Form(ctx context.Context) (*form.Form, error)
	PredictRecord(ctx context.Context, rec model.Record) (scoring.Result, error)
	Evaluate(ctx context.Context) (*evaluation.Result, error)
}

// Server wires HTTP routes for the JSON API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	schemaHandler     *SchemaHandler
	predictHandler    *PredictHandler
	evaluationHandler *EvaluationHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(statsProvider),
		statsHandler:      NewStatsHandler(statsProvider),
		schemaHandler:     NewSchemaHandler(deps),
		predictHandler:    NewPredictHandler(deps),
		evaluationHandler: NewEvaluationHandler(deps),
	}
}

// Register attaches all API routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/schema", MetricsMiddleware(s.schemaHandler.HandleGetSchema, "schema"))
	mux.HandleFunc("/api/v1/form", MetricsMiddleware(s.schemaHandler.HandleGetForm, "form"))
	mux.HandleFunc("/api/v1/predict", MetricsMiddleware(s.predictHandler.HandlePostPredict, "predict"))
	mux.HandleFunc("/api/v1/evaluation", MetricsMiddleware(s.evaluationHandler.HandleGetEvaluation, "evaluation"))
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

// allowMethod writes 405 and reports false when r does not use method.
func allowMethod(w http.ResponseWriter, r *http.Request, op, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, NewKind(op, ErrMethodNotAllowed))
	return false
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrResourceUnavailable):
		return http.StatusServiceUnavailable, codeResourceUnavailable
	case errors.Is(err, schema.ErrFeatureNamesUnavailable),
		errors.Is(err, schema.ErrStageMismatch),
		errors.Is(err, schema.ErrPartitionMismatch):
		return http.StatusInternalServerError, codeSchemaError
	case errors.Is(err, form.ErrInvalidInput), errors.Is(err, scoring.ErrMissingColumn):
		return http.StatusUnprocessableEntity, codeInvalidRecord
	case errors.Is(err, scoring.ErrScoringFailed), errors.Is(err, scoring.ErrInvalidOutput):
		return http.StatusUnprocessableEntity, codeScoringFailed
	case errors.Is(err, evaluation.ErrEmpty),
		errors.Is(err, evaluation.ErrLengthMismatch),
		errors.Is(err, evaluation.ErrBadLabel),
		errors.Is(err, evaluation.ErrPredict):
		return http.StatusInternalServerError, codeEvaluationError
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func writeDomainError(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, fmt.Errorf("%s: %w", op, err))
}
