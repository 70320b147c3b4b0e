package handlers

import (
	"encoding/json"
	"net/http"
)

// ApiResponse is the envelope for successful JSON responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return writeErrorBody(w, statusCode, map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// FieldErrorResponse is ErrorResponse plus the name of the offending field.
func FieldErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message, field string) error {
	return writeErrorBody(w, statusCode, map[string]string{
		"error":   errorCode,
		"message": message,
		"field":   field,
	})
}

func writeErrorBody(w http.ResponseWriter, statusCode int, body map[string]string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(body)
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
