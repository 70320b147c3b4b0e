package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		message    string
	}{
		{"bad request", http.StatusBadRequest, "invalid_request", "Invalid request body"},
		{"not found", http.StatusNotFound, "opportunity_not_found", "Opportunity not found"},
		{"internal error", http.StatusInternalServerError, "list_failed", "Failed to list enterprise"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			require.NoError(t, ErrorResponse(w, tt.statusCode, tt.errorCode, tt.message))

			assert.Equal(t, tt.statusCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeError(t, w)
			assert.Equal(t, tt.errorCode, body["error"])
			assert.Equal(t, tt.message, body["message"])
			_, hasField := body["field"]
			assert.False(t, hasField)
		})
	}
}

func TestFieldErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, FieldErrorResponse(w, http.StatusBadRequest, "validation_error", "is required", "name"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "validation_error", body["error"])
	assert.Equal(t, "name", body["field"])
}

func TestWriteJSON(t *testing.T) {
	t.Run("200 leaves status implicit", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]int{"count": 5}}))

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, true, body["success"])
		_, hasError := body["error"]
		assert.False(t, hasError, "empty error is omitted")
	})

	t.Run("non-200 status", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteJSON(w, http.StatusCreated, map[string]int{"count": 5}))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("unencodable data", func(t *testing.T) {
		w := httptest.NewRecorder()
		assert.Error(t, WriteJSON(w, http.StatusOK, make(chan int)))
	})
}
