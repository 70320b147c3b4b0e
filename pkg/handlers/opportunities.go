package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

// ChangeStatusRequest is the body of PUT /api/opportunities/{oid}/status.
type ChangeStatusRequest struct {
	Status models.OpportunityStatus `json:"status"`
}

// OpportunitiesHandler handles opportunity HTTP requests.
type OpportunitiesHandler struct {
	service services.OpportunityService
	search  *SearchGuard
	logger  *zap.Logger
}

// NewOpportunitiesHandler creates a new opportunities handler.
func NewOpportunitiesHandler(service services.OpportunityService, search *SearchGuard, logger *zap.Logger) *OpportunitiesHandler {
	return &OpportunitiesHandler{service: service, search: search, logger: logger}
}

// RegisterRoutes registers the opportunity routes on the given mux.
func (h *OpportunitiesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/opportunities", authed(authMiddleware, scope, h.List))
	mux.HandleFunc("POST /api/opportunities", authed(authMiddleware, scope, h.Create))
	mux.HandleFunc("GET /api/opportunities/contact-options", authed(authMiddleware, scope, h.ContactOptions))
	mux.HandleFunc("GET /api/opportunities/{oid}", authed(authMiddleware, scope, h.Get))
	mux.HandleFunc("PUT /api/opportunities/{oid}", authed(authMiddleware, scope, h.Update))
	mux.HandleFunc("DELETE /api/opportunities/{oid}", authed(authMiddleware, scope, h.Delete))
	mux.HandleFunc("PUT /api/opportunities/{oid}/status", authed(authMiddleware, scope, h.ChangeStatus))
	mux.HandleFunc("GET /api/opportunities/{oid}/activities", authed(authMiddleware, scope, h.ListActivities))
}

// List handles GET /api/opportunities?q=&status=&sort=&dir=
func (h *OpportunitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := rules.OpportunityQuery{
		ListQuery: parseListQuery(r),
		Status:    models.OpportunityStatus(r.URL.Query().Get("status")),
	}
	if !h.search.Screen(w, r, "opportunities", q.Search) {
		return
	}

	list, err := h.service.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.logger, err, "opportunity", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}

// Get handles GET /api/opportunities/{oid}
func (h *OpportunitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseOpportunityID(w, r, h.logger)
	if !ok {
		return
	}

	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "opportunity", "get")
		return
	}
	writeData(w, h.logger, http.StatusOK, o)
}

// Create handles POST /api/opportunities
// A missing status means prospecting. An opportunity created already won or
// lost gets today as its actual close date unless one is given.
func (h *OpportunitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var o models.Opportunity
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	if err := h.service.Create(r.Context(), &o); err != nil {
		writeServiceError(w, h.logger, err, "opportunity", "create")
		return
	}
	writeData(w, h.logger, http.StatusCreated, o)
}

// Update handles PUT /api/opportunities/{oid}
func (h *OpportunitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseOpportunityID(w, r, h.logger)
	if !ok {
		return
	}

	var o models.Opportunity
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeBadRequest(w, h.logger)
		return
	}
	o.ID = id

	if err := h.service.Update(r.Context(), &o); err != nil {
		writeServiceError(w, h.logger, err, "opportunity", "update")
		return
	}
	writeData(w, h.logger, http.StatusOK, o)
}

// ChangeStatus handles PUT /api/opportunities/{oid}/status
// Returns the stored opportunity with its new status and close date.
func (h *OpportunitiesHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseOpportunityID(w, r, h.logger)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	o, err := h.service.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, h.logger, err, "opportunity", "update")
		return
	}
	writeData(w, h.logger, http.StatusOK, o)
}

// Delete handles DELETE /api/opportunities/{oid}
func (h *OpportunitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseOpportunityID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "opportunity", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListActivities handles GET /api/opportunities/{oid}/activities
func (h *OpportunitiesHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseOpportunityID(w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.service.ListActivities(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "opportunity", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}

// ContactOptions handles GET /api/opportunities/contact-options?enterprise_id=
// Lists the contacts that may be attached to an opportunity of the enterprise.
// Without an enterprise the list is empty.
func (h *OpportunitiesHandler) ContactOptions(w http.ResponseWriter, r *http.Request) {
	enterpriseID, ok := parseOptionalUUIDQuery(w, r, "enterprise_id", h.logger)
	if !ok {
		return
	}

	list, err := h.service.EligibleContacts(r.Context(), enterpriseID)
	if err != nil {
		writeServiceError(w, h.logger, err, "contact", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}
