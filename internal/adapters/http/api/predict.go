package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/fraudlens/internal/domain/types"
)

// maxPredictBody bounds the request body of POST /api/v1/predict.
const maxPredictBody = 1 << 20

// PredictHandler scores one record.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePostPredict handles POST /api/v1/predict. The body is
// {"record": {column: value}}; categorical values are labels, the rest
// numbers.
func (h *PredictHandler) HandlePostPredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predict"
	if !allowMethod(w, r, op, http.MethodPost) {
		return
	}

	var req types.PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Record) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, WrapKind(op, ErrBadRequest, errors.New("missing record")))
		return
	}

	res, err := h.deps.PredictRecord(r.Context(), req.Record)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewPrediction(res))
}
