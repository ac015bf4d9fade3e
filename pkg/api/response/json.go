// Package response provides HTTP response utilities.
package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		// Headers are already sent; nothing useful can be written on failure.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response with the given status and message.
func Error(w http.ResponseWriter, statusCode int, message, requestID string) {
	JSON(w, statusCode, NewError(statusCode, message, requestID))
}

// ValidationError writes a 400 naming the offending request fields.
func ValidationError(w http.ResponseWriter, message string, fields []string, requestID string) {
	resp := NewError(http.StatusBadRequest, message, requestID)
	resp.Code = ErrCodeValidationFailed
	resp.Fields = fields
	JSON(w, http.StatusBadRequest, resp)
}
