package api

import (
	"net/http"
)

// SchemaHandler serves the pipeline schema and the form derived from it.
type SchemaHandler struct {
	deps Dependencies
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler(deps Dependencies) *SchemaHandler {
	return &SchemaHandler{deps: deps}
}

// HandleGetSchema handles GET /api/v1/schema.
func (h *SchemaHandler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_schema"
	if !allowMethod(w, r, op, http.MethodGet) {
		return
	}
	sc, err := h.deps.Schema(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// HandleGetForm handles GET /api/v1/form.
func (h *SchemaHandler) HandleGetForm(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_form"
	if !allowMethod(w, r, op, http.MethodGet) {
		return
	}
	f, err := h.deps.Form(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
