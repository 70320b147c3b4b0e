package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

// EnterprisesHandler handles enterprise HTTP requests.
type EnterprisesHandler struct {
	service services.EnterpriseService
	search  *SearchGuard
	logger  *zap.Logger
}

// NewEnterprisesHandler creates a new enterprises handler.
func NewEnterprisesHandler(service services.EnterpriseService, search *SearchGuard, logger *zap.Logger) *EnterprisesHandler {
	return &EnterprisesHandler{service: service, search: search, logger: logger}
}

// RegisterRoutes registers the enterprise routes on the given mux.
func (h *EnterprisesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/enterprises", authed(authMiddleware, scope, h.List))
	mux.HandleFunc("POST /api/enterprises", authed(authMiddleware, scope, h.Create))
	mux.HandleFunc("GET /api/enterprises/{eid}", authed(authMiddleware, scope, h.Get))
	mux.HandleFunc("PUT /api/enterprises/{eid}", authed(authMiddleware, scope, h.Update))
	mux.HandleFunc("DELETE /api/enterprises/{eid}", authed(authMiddleware, scope, h.Delete))
	mux.HandleFunc("GET /api/enterprises/{eid}/contacts", authed(authMiddleware, scope, h.ListContacts))
	mux.HandleFunc("GET /api/enterprises/{eid}/opportunities", authed(authMiddleware, scope, h.ListOpportunities))
	mux.HandleFunc("GET /api/enterprises/{eid}/activities", authed(authMiddleware, scope, h.ListActivities))
}

// List handles GET /api/enterprises?q=&sort=&dir=
func (h *EnterprisesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	if !h.search.Screen(w, r, "enterprises", q.Search) {
		return
	}

	list, err := h.service.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.logger, err, "enterprise", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}

// Get handles GET /api/enterprises/{eid}
func (h *EnterprisesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseEnterpriseID(w, r, h.logger)
	if !ok {
		return
	}

	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "enterprise", "get")
		return
	}
	writeData(w, h.logger, http.StatusOK, e)
}

// Create handles POST /api/enterprises
func (h *EnterprisesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var e models.Enterprise
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	if err := h.service.Create(r.Context(), &e); err != nil {
		writeServiceError(w, h.logger, err, "enterprise", "create")
		return
	}
	writeData(w, h.logger, http.StatusCreated, e)
}

// Update handles PUT /api/enterprises/{eid}
// The body replaces every editable field.
func (h *EnterprisesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseEnterpriseID(w, r, h.logger)
	if !ok {
		return
	}

	var e models.Enterprise
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeBadRequest(w, h.logger)
		return
	}
	e.ID = id

	if err := h.service.Update(r.Context(), &e); err != nil {
		writeServiceError(w, h.logger, err, "enterprise", "update")
		return
	}
	writeData(w, h.logger, http.StatusOK, e)
}

// Delete handles DELETE /api/enterprises/{eid}
func (h *EnterprisesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseEnterpriseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "enterprise", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListContacts handles GET /api/enterprises/{eid}/contacts
func (h *EnterprisesHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseEnterpriseID(w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.service.ListContacts(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "enterprise", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}

// ListOpportunities handles GET /api/enterprises/{eid}/opportunities
func (h *EnterprisesHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseEnterpriseID(w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.service.ListOpportunities(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "enterprise", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}

// ListActivities handles GET /api/enterprises/{eid}/activities
// Activities come back in timeline order, latest first.
func (h *EnterprisesHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseEnterpriseID(w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.service.ListActivities(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "enterprise", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}
