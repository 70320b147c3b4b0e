package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// ParseUserID extracts and validates the user ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: uid
func ParseUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "uid", "invalid_user_id", "Invalid user ID format", logger)
}

// ParseEnterpriseID extracts and validates the enterprise ID from the request path.
// Expects path parameter: eid
func ParseEnterpriseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "eid", "invalid_enterprise_id", "Invalid enterprise ID format", logger)
}

// ParseContactID extracts and validates the contact ID from the request path.
// Expects path parameter: cid
func ParseContactID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "cid", "invalid_contact_id", "Invalid contact ID format", logger)
}

// ParseOpportunityID extracts and validates the opportunity ID from the request path.
// Expects path parameter: oid
func ParseOpportunityID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "oid", "invalid_opportunity_id", "Invalid opportunity ID format", logger)
}

// ParseActivityID extracts and validates the activity ID from the request path.
// Expects path parameter: aid
func ParseActivityID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "aid", "invalid_activity_id", "Invalid activity ID format", logger)
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// parseListQuery reads ?q=&sort=&dir= from the URL. Any dir other than
// "desc" sorts ascending.
func parseListQuery(r *http.Request) rules.ListQuery {
	v := r.URL.Query()
	return rules.ListQuery{
		Search: strings.TrimSpace(v.Get("q")),
		Sort:   v.Get("sort"),
		Desc:   strings.EqualFold(v.Get("dir"), "desc"),
	}
}

// parseOptionalUUIDQuery reads an optional UUID query parameter. An absent
// parameter yields nil and true.
func parseOptionalUUIDQuery(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		if err := FieldErrorResponse(w, http.StatusBadRequest, "invalid_parameter", "Invalid UUID", name); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return &id, true
}

// parseOptionalBoolQuery reads an optional boolean query parameter.
func parseOptionalBoolQuery(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (*bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		if err := FieldErrorResponse(w, http.StatusBadRequest, "invalid_parameter", "Expected true or false", name); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return &b, true
}

// parseLimitQuery reads ?limit=, falling back to def when absent.
func parseLimitQuery(w http.ResponseWriter, r *http.Request, def int, logger *zap.Logger) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		if err := FieldErrorResponse(w, http.StatusBadRequest, "invalid_parameter", "Limit must be a non-negative integer", "limit"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return n, true
}
