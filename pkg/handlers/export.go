package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/clock"
	"github.com/ekaya-inc/ekaya-crm/pkg/export"
)

// WorkbookBuilder renders an entity collection as XLSX bytes.
// *export.Exporter satisfies it.
type WorkbookBuilder interface {
	Bytes(ctx context.Context, entity export.Entity) ([]byte, error)
}

// ExportHandler serves XLSX downloads.
type ExportHandler struct {
	builder WorkbookBuilder
	clock   clock.Clock
	logger  *zap.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(builder WorkbookBuilder, clk clock.Clock, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{builder: builder, clock: clk, logger: logger}
}

// RegisterRoutes registers the export route on the given mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/export/{entity}", authed(authMiddleware, scope, h.Export))
}

// Export handles GET /api/export/{entity}
// entity is enterprises, contacts, opportunities or activities.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	entity, err := export.ParseEntity(r.PathValue("entity"))
	if err != nil {
		if err := FieldErrorResponse(w, http.StatusBadRequest, "invalid_entity", err.Error(), "entity"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	data, err := h.builder.Bytes(r.Context(), entity)
	if err != nil {
		writeServiceError(w, h.logger, err, string(entity), "export")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(entity, h.clock.Today())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write export", zap.Error(err))
	}
}
