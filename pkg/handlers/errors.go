package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// writeServiceError maps an error returned by a service to a response.
// entity is the singular noun ("opportunity") and action the failed verb
// ("update"), used for error codes and messages.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, entity, action string) {
	var (
		status  int
		code    string
		message string
		field   string
	)

	var batchErr *rules.BatchValidationError
	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &batchErr):
		status, code, message = http.StatusBadRequest, "validation_error", batchErr.Message
		field = "activities[" + strconv.Itoa(batchErr.Index) + "]"
		if batchErr.Field != "activities" {
			field += "." + batchErr.Field
		}
	case errors.As(err, &validationErr):
		status, code, message = http.StatusBadRequest, "validation_error", validationErr.Message
		field = validationErr.Field
	case errors.Is(err, apperrors.ErrLastAdmin):
		status, code, message = http.StatusConflict, "last_admin", "Cannot remove the last admin"
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, entity+"_not_found", capitalize(entity)+" not found"
	case errors.Is(err, apperrors.ErrConflict):
		status, code, message = http.StatusConflict, "conflict", "Referenced record does not exist or value already in use"
	default:
		logger.Error("Failed to "+action+" "+entity, zap.Error(err))
		status, code, message = http.StatusInternalServerError, action+"_failed", "Failed to "+action+" "+entity
	}

	var writeErr error
	if field != "" {
		writeErr = FieldErrorResponse(w, status, code, message, field)
	} else {
		writeErr = ErrorResponse(w, status, code, message)
	}
	if writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}

// writeBadRequest writes a 400 for an undecodable body.
func writeBadRequest(w http.ResponseWriter, logger *zap.Logger) {
	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeData writes a successful ApiResponse.
func writeData(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	if err := WriteJSON(w, status, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
