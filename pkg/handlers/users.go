package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

// UsersHandler handles user-related HTTP requests.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/users", authed(authMiddleware, scope, h.List))
	mux.HandleFunc("POST /api/users", authed(authMiddleware, scope, h.Create))
	mux.HandleFunc("GET /api/users/{uid}", authed(authMiddleware, scope, h.Get))
	mux.HandleFunc("PUT /api/users/{uid}", authed(authMiddleware, scope, h.Update))

	// DELETE /api/users/{uid} - admin only
	mux.HandleFunc("DELETE /api/users/{uid}",
		authMiddleware.RequireAuth(
			auth.RequireRole(models.RoleAdmin)(
				scope(h.Delete))))
}

// List handles GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "user", "list")
		return
	}
	writeData(w, h.logger, http.StatusOK, users)
}

// Get handles GET /api/users/{uid}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "user", "get")
		return
	}
	writeData(w, h.logger, http.StatusOK, user)
}

// Create handles POST /api/users
// A missing role means sales. Emails are unique regardless of case.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeBadRequest(w, h.logger)
		return
	}

	if err := h.userService.Create(r.Context(), &user); err != nil {
		writeServiceError(w, h.logger, err, "user", "create")
		return
	}
	writeData(w, h.logger, http.StatusCreated, user)
}

// Update handles PUT /api/users/{uid}
// Demoting the last admin is refused with 409 last_admin.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeBadRequest(w, h.logger)
		return
	}
	user.ID = id

	if err := h.userService.Update(r.Context(), &user); err != nil {
		writeServiceError(w, h.logger, err, "user", "update")
		return
	}
	writeData(w, h.logger, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{uid}
// Records the user owns keep existing with no owner.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "user", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
