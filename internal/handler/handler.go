// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/parlor/parlor/internal/handler/dto"
)

// Handler wraps the leftover endpoints that need no dependencies.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello is a simple root endpoint for smoke testing.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "Hello from Parlor!",
		"version": "0.1.0",
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"error": "resource not found",
	}
	writeJSON(w, http.StatusNotFound, response)
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"error": "method not allowed",
	}
	writeJSON(w, http.StatusMethodNotAllowed, response)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeData writes the `{"data": ...}` envelope used by all chat
// endpoints. A nil value serializes as `{"data":null}`, the wire shape
// for not-found results.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dto.DataResponse{Data: data})
}

// writeValidationError writes the itemized 400 body for malformed
// request fields.
func writeValidationError(w http.ResponseWriter, issues []dto.Issue) {
	writeJSON(w, http.StatusBadRequest, dto.NewValidationError(issues))
}
