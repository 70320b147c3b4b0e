package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/services"
)

// StartSessionRequest picks the CRM user to act as.
type StartSessionRequest struct {
	UserID string `json:"user_id"`
}

// SessionHandler manages the dev acting-user session. It only exists when
// token verification is disabled.
type SessionHandler struct {
	sessions    *auth.SessionStore
	userService services.UserService
	logger      *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *auth.SessionStore, userService services.UserService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, userService: userService, logger: logger}
}

// RegisterRoutes registers the session routes on the given mux.
// No auth middleware: this is how a dev client gets an identity.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/session", scope(h.Start))
	mux.HandleFunc("DELETE /api/session", h.End)
}

// Start handles POST /api/session
// The user must exist; their role is copied into the session.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger)
		return
	}
	id, err := uuid.Parse(req.UserID)
	if err != nil {
		if err := FieldErrorResponse(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID format", "user_id"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "user", "get")
		return
	}

	if err := h.sessions.SetActor(w, r, &auth.Actor{UserID: user.ID, Role: user.Role}); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "session_failed", "Failed to start session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.logger.Info("Started dev session", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	writeData(w, h.logger, http.StatusOK, user)
}

// End handles DELETE /api/session
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("Failed to clear session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "session_failed", "Failed to end session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
