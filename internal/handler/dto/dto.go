// Package dto defines request and response shapes for the HTTP API,
// including the field-level validation issues returned on 400s.
package dto

import (
	"net/mail"
	"strings"
)

// Issue describes a single invalid request field.
type Issue struct {
	Path     []string `json:"path"`
	Code     string   `json:"code"`
	Expected string   `json:"expected,omitempty"`
	Message  string   `json:"message"`
}

// Issue codes.
const (
	CodeInvalidType   = "invalid_type"
	CodeInvalidString = "invalid_string"
	CodeTooSmall      = "too_small"
)

// ValidationError is the 400 body: every invalid field reported at
// once, never just the first.
type ValidationError struct {
	Success bool         `json:"success"`
	Error   ErrorDetails `json:"error"`
}

// ErrorDetails carries the issue list.
type ErrorDetails struct {
	Issues []Issue `json:"issues"`
	Name   string  `json:"name"`
}

// NewValidationError wraps issues in the response envelope.
func NewValidationError(issues []Issue) ValidationError {
	return ValidationError{
		Success: false,
		Error: ErrorDetails{
			Issues: issues,
			Name:   "ValidationError",
		},
	}
}

// DataResponse is the `{"data": ...}` envelope for chat endpoints.
type DataResponse struct {
	Data any `json:"data"`
}

// ErrorResponse is the flat `{"error": CODE}` envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// requireString appends an issue when the field is empty.
func requireString(issues []Issue, field, value string) []Issue {
	if strings.TrimSpace(value) == "" {
		return append(issues, Issue{
			Path:     []string{field},
			Code:     CodeInvalidType,
			Expected: "string",
			Message:  "Required",
		})
	}
	return issues
}

// requireEmail appends an issue when the field is not a valid address.
// An empty value is reported as missing, not malformed.
func requireEmail(issues []Issue, field, value string) []Issue {
	if strings.TrimSpace(value) == "" {
		return append(issues, Issue{
			Path:     []string{field},
			Code:     CodeInvalidType,
			Expected: "string",
			Message:  "Required",
		})
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return append(issues, Issue{
			Path:    []string{field},
			Code:    CodeInvalidString,
			Message: "Invalid email",
		})
	}
	return issues
}
