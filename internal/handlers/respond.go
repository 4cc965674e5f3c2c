package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/docstore/docstore/internal/storage"
)

var validate = validator.New()

// ErrorResponse is the JSON body for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// writeStorageError maps storage errors to HTTP status codes, falling back
// to 500 with defaultMsg.
func writeStorageError(w http.ResponseWriter, err error, defaultMsg string) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}
	if errors.Is(err, storage.ErrConflict) {
		writeError(w, http.StatusConflict, "Resource already exists")
		return
	}
	writeError(w, http.StatusInternalServerError, defaultMsg)
}

// isStorageError reports whether err is one of the storage sentinel errors.
func isStorageError(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrConflict)
}

// decodeAndValidate decodes the JSON request body into dst and runs
// struct validation. It writes the error response itself and reports
// whether the caller can proceed.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var validationErr validator.ValidationErrors
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, "Validation error: "+validationErr.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid input")
		return false
	}
	return true
}
