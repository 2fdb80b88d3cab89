package api

import (
	"net/http"

	"github.com/okian/fraudlens/internal/domain/types"
)

// EvaluationHandler reports the test split evaluation.
type EvaluationHandler struct {
	deps Dependencies
}

// NewEvaluationHandler creates a new evaluation handler.
func NewEvaluationHandler(deps Dependencies) *EvaluationHandler {
	return &EvaluationHandler{deps: deps}
}

// HandleGetEvaluation handles GET /api/v1/evaluation. Any load or scoring
// failure returns an error and no partial report.
func (h *EvaluationHandler) HandleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_evaluation"
	if !allowMethod(w, r, op, http.MethodGet) {
		return
	}
	res, err := h.deps.Evaluate(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewEvaluation(res))
}
