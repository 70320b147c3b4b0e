package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

// DashboardHandler serves the home page summary and the pipeline board.
type DashboardHandler struct {
	dashboard services.DashboardService
	pipeline  services.PipelineService
	logger    *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboard services.DashboardService, pipeline services.PipelineService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers the dashboard routes on the given mux.
// The dashboard opens its own scopes, one per concurrent load, so it only
// needs auth.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/dashboard", authMiddleware.RequireAuth(h.Dashboard))
	mux.HandleFunc("GET /api/pipeline", authed(authMiddleware, scope, h.Pipeline))
}

// Dashboard handles GET /api/dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Get(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "dashboard", "load")
		return
	}
	writeData(w, h.logger, http.StatusOK, d)
}

// Pipeline handles GET /api/pipeline
// Always returns six columns in pipeline order.
func (h *DashboardHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	cols, err := h.pipeline.Columns(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "pipeline", "load")
		return
	}
	writeData(w, h.logger, http.StatusOK, cols)
}
