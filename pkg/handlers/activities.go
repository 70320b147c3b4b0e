package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/audit"
	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

// maxBatchSize bounds POST /api/admin/activities/batch.
const maxBatchSize = 500

// BatchActivitiesRequest is the body of the admin batch import.
type BatchActivitiesRequest struct {
	Activities []*models.Activity `json:"activities"`
}

// BatchActivitiesResponse reports a successful batch import.
type BatchActivitiesResponse struct {
	Created    int                `json:"created"`
	Activities []*models.Activity `json:"activities"`
}

// ActivitiesHandler handles activity HTTP requests.
type ActivitiesHandler struct {
	service services.ActivityService
	search  *SearchGuard
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewActivitiesHandler creates a new activities handler. auditor may be nil.
func NewActivitiesHandler(service services.ActivityService, search *SearchGuard, auditor *audit.SecurityAuditor, logger *zap.Logger) *ActivitiesHandler {
	return &ActivitiesHandler{service: service, search: search, auditor: auditor, logger: logger}
}

// RegisterRoutes registers the activity routes on the given mux.
func (h *ActivitiesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/activities", authed(authMiddleware, scope, h.List))
	mux.HandleFunc("POST /api/activities", authed(authMiddleware, scope, h.Create))
	mux.HandleFunc("GET /api/activities/{aid}", authed(authMiddleware, scope, h.Get))
	mux.HandleFunc("PUT /api/activities/{aid}", authed(authMiddleware, scope, h.Update))
	mux.HandleFunc("DELETE /api/activities/{aid}", authed(authMiddleware, scope, h.Delete))
	mux.HandleFunc("POST /api/activities/{aid}/toggle-done", authed(authMiddleware, scope, h.ToggleDone))

	// Admin only: all-or-nothing bulk import.
	mux.HandleFunc("POST /api/admin/activities/batch",
		authMiddleware.RequireAuth(
			auth.RequireRole(models.RoleAdmin)(
				scope(h.CreateBatch))))
}

// List handles GET /api/activities?q=&type=&done=&period=
func (h *ActivitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := rules.ActivityQuery{
		Search: parseListQuery(r).Search,
		Type:   models.ActivityType(v.Get("type")),
		Period: rules.Period(v.Get("period")),
	}
	if !h.search.Screen(w, r, "activities", q.Search) {
		return
	}
	done, ok := parseOptionalBoolQuery(w, r, "done", h.logger)
	if !ok {
		return
	}
	q.Done = done

	list, err := h.service.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.logger, err, "activity", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}

// Get handles GET /api/activities/{aid}
func (h *ActivitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseActivityID(w, r, h.logger)
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "activity", "get")
		return
	}
	writeData(w, h.logger, http.StatusOK, a)
}

// Create handles POST /api/activities
// The activity must reference at least one enterprise, contact or
// opportunity.
func (h *ActivitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var a models.Activity
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	if err := h.service.Create(r.Context(), &a); err != nil {
		writeServiceError(w, h.logger, err, "activity", "create")
		return
	}
	writeData(w, h.logger, http.StatusCreated, a)
}

// Update handles PUT /api/activities/{aid}
func (h *ActivitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseActivityID(w, r, h.logger)
	if !ok {
		return
	}

	var a models.Activity
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeBadRequest(w, h.logger)
		return
	}
	a.ID = id

	if err := h.service.Update(r.Context(), &a); err != nil {
		writeServiceError(w, h.logger, err, "activity", "update")
		return
	}
	writeData(w, h.logger, http.StatusOK, a)
}

// ToggleDone handles POST /api/activities/{aid}/toggle-done
func (h *ActivitiesHandler) ToggleDone(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseActivityID(w, r, h.logger)
	if !ok {
		return
	}

	a, err := h.service.ToggleDone(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "activity", "update")
		return
	}
	writeData(w, h.logger, http.StatusOK, a)
}

// Delete handles DELETE /api/activities/{aid}
func (h *ActivitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseActivityID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "activity", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBatch handles POST /api/admin/activities/batch
// Every payload is validated before anything is written; one bad payload
// rejects the whole batch.
func (h *ActivitiesHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchActivitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger)
		return
	}
	if len(req.Activities) > maxBatchSize {
		if err := FieldErrorResponse(w, http.StatusRequestEntityTooLarge, "batch_too_large",
			"At most 500 activities per batch", "activities"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.service.CreateBatch(r.Context(), req.Activities); err != nil {
		if apperrors.IsValidation(err) && h.auditor != nil {
			h.auditor.LogBatchRejected(r.Context(), "activities", len(req.Activities), err.Error(), clientIP(r))
		}
		writeServiceError(w, h.logger, err, "activity", "create")
		return
	}
	writeData(w, h.logger, http.StatusCreated, BatchActivitiesResponse{
		Created:    len(req.Activities),
		Activities: req.Activities,
	})
}
