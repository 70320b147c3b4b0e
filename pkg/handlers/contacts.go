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

// ContactsHandler handles contact HTTP requests.
type ContactsHandler struct {
	service services.ContactService
	search  *SearchGuard
	logger  *zap.Logger
}

// NewContactsHandler creates a new contacts handler.
func NewContactsHandler(service services.ContactService, search *SearchGuard, logger *zap.Logger) *ContactsHandler {
	return &ContactsHandler{service: service, search: search, logger: logger}
}

// RegisterRoutes registers the contact routes on the given mux.
func (h *ContactsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/contacts", authed(authMiddleware, scope, h.List))
	mux.HandleFunc("POST /api/contacts", authed(authMiddleware, scope, h.Create))
	mux.HandleFunc("GET /api/contacts/{cid}", authed(authMiddleware, scope, h.Get))
	mux.HandleFunc("PUT /api/contacts/{cid}", authed(authMiddleware, scope, h.Update))
	mux.HandleFunc("DELETE /api/contacts/{cid}", authed(authMiddleware, scope, h.Delete))
	mux.HandleFunc("GET /api/contacts/{cid}/opportunities", authed(authMiddleware, scope, h.ListOpportunities))
	mux.HandleFunc("GET /api/contacts/{cid}/activities", authed(authMiddleware, scope, h.ListActivities))
}

// List handles GET /api/contacts?q=&sort=&dir=&enterprise_id=
func (h *ContactsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := rules.ContactQuery{ListQuery: parseListQuery(r)}
	if !h.search.Screen(w, r, "contacts", q.Search) {
		return
	}
	enterpriseID, ok := parseOptionalUUIDQuery(w, r, "enterprise_id", h.logger)
	if !ok {
		return
	}
	q.EnterpriseID = enterpriseID

	list, err := h.service.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, h.logger, err, "contact", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}

// Get handles GET /api/contacts/{cid}
func (h *ContactsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseContactID(w, r, h.logger)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "contact", "get")
		return
	}
	writeData(w, h.logger, http.StatusOK, c)
}

// Create handles POST /api/contacts
// The phone number is normalised to E.164 when it parses.
func (h *ContactsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	if err := h.service.Create(r.Context(), &c); err != nil {
		writeServiceError(w, h.logger, err, "contact", "create")
		return
	}
	writeData(w, h.logger, http.StatusCreated, c)
}

// Update handles PUT /api/contacts/{cid}
func (h *ContactsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseContactID(w, r, h.logger)
	if !ok {
		return
	}

	var c models.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, h.logger)
		return
	}
	c.ID = id

	if err := h.service.Update(r.Context(), &c); err != nil {
		writeServiceError(w, h.logger, err, "contact", "update")
		return
	}
	writeData(w, h.logger, http.StatusOK, c)
}

// Delete handles DELETE /api/contacts/{cid}
// Opportunities and activities referencing the contact are detached, not
// deleted.
func (h *ContactsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseContactID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "contact", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOpportunities handles GET /api/contacts/{cid}/opportunities
func (h *ContactsHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseContactID(w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.service.ListOpportunities(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "contact", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}

// ListActivities handles GET /api/contacts/{cid}/activities
func (h *ContactsHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseContactID(w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.service.ListActivities(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "contact", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, list)
}
