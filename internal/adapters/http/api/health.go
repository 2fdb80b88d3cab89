package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/fraudlens/internal/domain/types"
	"github.com/okian/fraudlens/pkg/metrics"
)

// HealthHandler handles liveness and metrics requests.
type HealthHandler struct {
	uptime  func() time.Duration
	metrics http.Handler
}

// NewHealthHandler creates a new health handler. Uptime comes from p when
// it is not nil.
func NewHealthHandler(p StatsProvider) *HealthHandler {
	h := &HealthHandler{
		uptime:  func() time.Duration { return 0 },
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
	if p != nil {
		h.uptime = p.Uptime
	}
	return h
}

// HandleHealth handles GET /healthz. It reports liveness only; the model
// and split load lazily and their state is under /stats.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "api.healthz", http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, types.Health{Status: "ok", Uptime: h.uptime().String()})
}

// HandleMetrics serves the custom Prometheus registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
